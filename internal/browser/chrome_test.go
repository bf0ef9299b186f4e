package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestCandidatesWindowsExpandsPercentVars(t *testing.T) {
	got := Candidates("windows", envMap(map[string]string{
		"PROGRAMFILES":      `C:\Program Files`,
		"PROGRAMFILES(X86)": `C:\Program Files (x86)`,
		"LOCALAPPDATA":      `C:\Users\me\AppData\Local`,
	}))

	require.Len(t, got, 3)
	assert.Equal(t, `C:\Program Files\Google\Chrome\Application\chrome.exe`, got[0].Path)
	assert.Equal(t, `C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`, got[1].Path)
	assert.Equal(t, `C:\Users\me\AppData\Local\Google\Chrome\Application\chrome.exe`, got[2].Path)
}

func TestCandidatesDropsUnsetVars(t *testing.T) {
	got := Candidates("windows", envMap(map[string]string{
		"LOCALAPPDATA": `C:\Users\me\AppData\Local`,
	}))

	require.Len(t, got, 1)
	assert.Equal(t, `C:\Users\me\AppData\Local\Google\Chrome\Application\chrome.exe`, got[0].Path)

	mac := Candidates("darwin", envMap(nil))
	for _, c := range mac {
		assert.NotContains(t, c.Path, "$HOME")
	}
	assert.Len(t, mac, 2)
}

func TestLocateReturnsFirstExisting(t *testing.T) {
	candidates := []BrowserExecutable{
		{Kind: BrowserChrome, Path: "/missing/one"},
		{Kind: BrowserChrome, Path: "/present/two"},
		{Kind: BrowserChromium, Path: "/present/three"},
	}
	var checked []string
	exists := func(p string) bool {
		checked = append(checked, p)
		return p == "/present/two" || p == "/present/three"
	}

	exe, err := Locate(candidates, exists)
	require.NoError(t, err)
	assert.Equal(t, "/present/two", exe.Path)
	assert.Equal(t, BrowserChrome, exe.Kind)
	assert.Equal(t, []string{"/missing/one", "/present/two"}, checked)
}

func TestLocateNoneExist(t *testing.T) {
	exe, err := Locate([]BrowserExecutable{{Path: "/a"}, {Path: "/b"}}, func(string) bool { return false })
	assert.Nil(t, exe)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindChromeExecutableCustomPath(t *testing.T) {
	_, err := FindChromeExecutable("/definitely/not/here/chrome")
	assert.ErrorIs(t, err, ErrNotFound)

	dir := t.TempDir()
	path := writeFile(t, dir, "chrome", "#!/bin/sh\n")
	exe, err := FindChromeExecutable(path)
	require.NoError(t, err)
	assert.Equal(t, BrowserCustom, exe.Kind)
	assert.Equal(t, path, exe.Path)
}

func TestDefaultUserDataDir(t *testing.T) {
	assert.Equal(t, `C:\Users\me\AppData\Local\Google\Chrome\User Data`,
		DefaultUserDataDir("windows", envMap(map[string]string{"LOCALAPPDATA": `C:\Users\me\AppData\Local`})))
	assert.Equal(t, "/home/me/.config/google-chrome",
		DefaultUserDataDir("linux", envMap(map[string]string{"HOME": "/home/me"})))
	assert.Equal(t, "/Users/me/Library/Application Support/Google/Chrome",
		DefaultUserDataDir("darwin", envMap(map[string]string{"HOME": "/Users/me"})))
	assert.Empty(t, DefaultUserDataDir("linux", envMap(nil)))
}
