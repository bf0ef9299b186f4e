package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/neboloop/oauthsetup/internal/keyring"
	"github.com/neboloop/oauthsetup/internal/logging"
)

const secretPlaceholder = "<set in .env>"

// resolveSecret prefers the configured secret, then the keychain.
func resolveSecret(configured string) string {
	if configured != "" {
		return configured
	}
	secret, err := keyring.GetClientSecret()
	switch {
	case err == nil && secret != "":
		return secret
	case err != nil && !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrDisabled):
		logging.Debug("read client secret from keychain", "error", err)
	}
	return secretPlaceholder
}

func printCredentials(w io.Writer, clientID, secret string) {
	fmt.Fprintf(w, "\nCREDENTIALS:\n")
	fmt.Fprintf(w, "  GOOGLE_CLIENT_ID=%s\n", clientID)
	fmt.Fprintf(w, "  GOOGLE_CLIENT_SECRET=%s\n", secret)
}
