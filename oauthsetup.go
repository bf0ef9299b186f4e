package main

import (
	_ "embed"
	"fmt"
	"os"

	cli "github.com/neboloop/oauthsetup/cmd/oauthsetup"
	"github.com/neboloop/oauthsetup/internal/config"

	"github.com/joho/godotenv"
)

//go:embed etc/oauthsetup.yaml
var embeddedConfig []byte

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load embedded config (defaults)
	c, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		fmt.Printf("Failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.SetupRootCmd(&c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
