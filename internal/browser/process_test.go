package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildChromeArgs(t *testing.T) {
	args := BuildChromeArgs(LaunchOptions{
		UserDataDir: "/tmp/scratch",
		CDPPort:     9333,
		URL:         "https://console.cloud.google.com/apis/credentials",
	})

	assert.Equal(t, []string{
		"--user-data-dir=/tmp/scratch",
		"--profile-directory=Default",
		"--remote-debugging-port=9333",
		"--no-first-run",
		"--no-default-browser-check",
		"https://console.cloud.google.com/apis/credentials",
	}, args)
}

func TestBuildChromeArgsDefaults(t *testing.T) {
	args := BuildChromeArgs(LaunchOptions{UserDataDir: "p"})

	assert.Contains(t, args, "--remote-debugging-port=9222")
	assert.Equal(t, "--no-default-browser-check", args[len(args)-1])
}

func TestDefaultImageName(t *testing.T) {
	assert.Equal(t, "chrome.exe", DefaultImageName("windows"))
	assert.Equal(t, "Google Chrome", DefaultImageName("darwin"))
	assert.Equal(t, "chrome", DefaultImageName("linux"))
}

func TestKillNilRunningChrome(t *testing.T) {
	var r *RunningChrome
	assert.NoError(t, r.Kill())
	assert.NoError(t, (&RunningChrome{}).Kill())
}

func TestLaunchChromeNilExecutable(t *testing.T) {
	_, err := LaunchChrome(nil, LaunchOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}
