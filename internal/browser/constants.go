// Package browser locates, launches and stops the local Chrome used for the
// OAuth redirect setup, and stages the scratch profile it runs against.
package browser

const (
	// DefaultCDPPort is the Chrome DevTools Protocol port the launched browser listens on.
	DefaultCDPPort = 9222

	// DefaultProfileDirectory is the profile sub-directory selected with --profile-directory.
	DefaultProfileDirectory = "Default"

	// ScratchProfileName is the scratch profile directory created under the output directory.
	ScratchProfileName = ".chrome-profile-copy"
)

// Files copied from the live profile root.
var stagedRootFiles = []string{
	"Local State",
}

// Files copied from the live profile's Default sub-directory.
var stagedProfileFiles = []string{
	"Cookies", "Cookies-journal",
	"Login Data", "Login Data-journal",
	"Web Data", "Web Data-journal",
	"Preferences", "Secure Preferences",
}
