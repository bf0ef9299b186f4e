package browser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultUserDataDir returns the live Chrome user data directory for goos,
// or "" when the variables it is built from are unset.
func DefaultUserDataDir(goos string, getenv func(string) string) string {
	var tmpl string
	switch goos {
	case "windows":
		tmpl = joinFor(goos, "%LOCALAPPDATA%", "Google", "Chrome", "User Data")
	case "darwin":
		tmpl = joinFor(goos, "$HOME", "Library", "Application Support", "Google", "Chrome")
	default:
		tmpl = joinFor(goos, "$HOME", ".config", "google-chrome")
	}
	dir, ok := expandPath(goos, tmpl, getenv)
	if !ok {
		return ""
	}
	return dir
}

// ProfileFiles returns the allow-listed auth files relative to the user
// data directory.
func ProfileFiles() []string {
	rels := append([]string{}, stagedRootFiles...)
	for _, f := range stagedProfileFiles {
		rels = append(rels, filepath.Join(DefaultProfileDirectory, f))
	}
	return rels
}

// StageProfile recreates dst and copies the allow-listed auth files from the
// live profile at src. Files missing from src are skipped. It returns the
// staged paths relative to dst.
func StageProfile(src, dst string) ([]string, error) {
	if err := os.RemoveAll(dst); err != nil {
		return nil, fmt.Errorf("failed to clear scratch profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dst, DefaultProfileDirectory), 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch profile: %w", err)
	}

	var staged []string
	for _, rel := range ProfileFiles() {
		from := filepath.Join(src, rel)
		info, err := os.Stat(from)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := copyFile(from, filepath.Join(dst, rel), info); err != nil {
			return staged, fmt.Errorf("failed to copy %s: %w", rel, err)
		}
		staged = append(staged, rel)
	}
	return staged, nil
}

// copyFile copies src to dst keeping the permission bits and modification time.
func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
