package browser

import (
	"errors"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
)

// BrowserKind identifies the type of Chromium-based browser.
type BrowserKind string

const (
	BrowserChrome   BrowserKind = "chrome"
	BrowserChromium BrowserKind = "chromium"
	BrowserCustom   BrowserKind = "custom"
)

// ErrNotFound is returned when no candidate browser executable exists.
var ErrNotFound = errors.New("no supported browser found")

// BrowserExecutable represents a found browser binary.
type BrowserExecutable struct {
	Kind BrowserKind
	Path string
}

type candidate struct {
	kind BrowserKind
	path string
}

var windowsCandidates = []candidate{
	{BrowserChrome, `%PROGRAMFILES%\Google\Chrome\Application\chrome.exe`},
	{BrowserChrome, `%PROGRAMFILES(X86)%\Google\Chrome\Application\chrome.exe`},
	{BrowserChrome, `%LOCALAPPDATA%\Google\Chrome\Application\chrome.exe`},
}

var macCandidates = []candidate{
	{BrowserChrome, "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
	{BrowserChrome, "$HOME/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
	{BrowserChromium, "/Applications/Chromium.app/Contents/MacOS/Chromium"},
}

var linuxCandidates = []candidate{
	{BrowserChrome, "/usr/bin/google-chrome"},
	{BrowserChrome, "/usr/bin/google-chrome-stable"},
	{BrowserChromium, "/usr/bin/chromium"},
	{BrowserChromium, "/usr/bin/chromium-browser"},
	{BrowserChromium, "/snap/bin/chromium"},
}

// FindChromeExecutable finds Chrome on this machine. A non-empty customPath
// bypasses detection and must exist.
func FindChromeExecutable(customPath string) (*BrowserExecutable, error) {
	if customPath != "" {
		if !fileExists(customPath) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, customPath)
		}
		return &BrowserExecutable{Kind: BrowserCustom, Path: customPath}, nil
	}
	return Locate(Candidates(runtime.GOOS, os.Getenv), fileExists)
}

// Candidates returns the ordered candidate executables for goos with
// environment variables expanded through getenv. Candidates that reference
// an unset variable are dropped.
func Candidates(goos string, getenv func(string) string) []BrowserExecutable {
	var list []candidate
	switch goos {
	case "windows":
		list = windowsCandidates
	case "darwin":
		list = macCandidates
	default:
		list = linuxCandidates
	}

	out := make([]BrowserExecutable, 0, len(list))
	for _, c := range list {
		path, ok := expandPath(goos, c.path, getenv)
		if !ok {
			continue
		}
		out = append(out, BrowserExecutable{Kind: c.kind, Path: path})
	}
	return out
}

// Locate returns the first candidate for which exists reports true.
func Locate(candidates []BrowserExecutable, exists func(string) bool) (*BrowserExecutable, error) {
	for _, c := range candidates {
		if exists(c.Path) {
			found := c
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// expandPath expands %VAR% on Windows and $VAR elsewhere. It reports false
// when any referenced variable is empty.
func expandPath(goos, tmpl string, getenv func(string) string) (string, bool) {
	ok := true
	lookup := func(name string) string {
		v := getenv(name)
		if v == "" {
			ok = false
		}
		return v
	}

	if goos != "windows" {
		return os.Expand(tmpl, lookup), ok
	}

	var b strings.Builder
	rest := tmpl
	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(lookup(rest[start+1 : start+1+end]))
		rest = rest[start+end+2:]
	}
	return b.String(), ok
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// joinFor joins path elements with the separator of goos, so paths for
// another platform can be built and compared in tests.
func joinFor(goos string, elem ...string) string {
	if goos == "windows" {
		return strings.Join(elem, `\`)
	}
	return path.Join(elem...)
}
