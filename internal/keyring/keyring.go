// Package keyring keeps the OAuth client secret in the OS keychain.
package keyring

import (
	"errors"
	"fmt"
	"os"

	zkr "github.com/zalando/go-keyring"
)

const (
	serviceName = "oauthsetup"
	accountName = "google-client-secret"
)

// ErrNotFound is returned when no secret is stored.
var ErrNotFound = zkr.ErrNotFound

// ErrDisabled is returned when keychain access is switched off.
var ErrDisabled = errors.New("keychain disabled")

// Disabled reports whether OAUTHSETUP_KEYRING_DISABLED=1 is set
// (opt-in for headless/CI/Docker).
func Disabled() bool {
	return os.Getenv("OAUTHSETUP_KEYRING_DISABLED") == "1"
}

// GetClientSecret retrieves the stored client secret.
func GetClientSecret() (string, error) {
	if Disabled() {
		return "", ErrDisabled
	}
	secret, err := zkr.Get(serviceName, accountName)
	if err != nil {
		return "", fmt.Errorf("keychain get: %w", err)
	}
	return secret, nil
}

// SetClientSecret stores the client secret.
func SetClientSecret(secret string) error {
	if Disabled() {
		return ErrDisabled
	}
	return zkr.Set(serviceName, accountName, secret)
}

// DeleteClientSecret removes the stored client secret.
func DeleteClientSecret() error {
	if Disabled() {
		return ErrDisabled
	}
	return zkr.Delete(serviceName, accountName)
}

// Available returns true if the OS keychain is functional.
// Probes the keychain with a test write/read/delete cycle.
func Available() bool {
	if Disabled() {
		return false
	}
	testService := "oauthsetup-keyring-probe"
	testAccount := "probe"
	if err := zkr.Set(testService, testAccount, "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(testService, testAccount)
	return true
}
