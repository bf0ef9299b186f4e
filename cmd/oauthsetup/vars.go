package cli

import (
	"github.com/spf13/cobra"

	"github.com/neboloop/oauthsetup/internal/config"
)

// Shared CLI flags
var (
	cfgFile     string
	clientID    string
	projectID   string
	redirectURI string
	port        int
	outputDir   string
	verbose     bool
)

// AppVersion is set at build time with -ldflags "-X ...cli.AppVersion=...".
var AppVersion = "dev"

// ServerConfig holds the loaded configuration (set by main)
var ServerConfig *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	rootCmd := &cobra.Command{
		Use:   "oauthsetup",
		Short: "Add a redirect URI to a Google Cloud OAuth client",
		Long: `oauthsetup relaunches your local Chrome with a copy of its login data,
opens the OAuth client edit page in the Google Cloud console and tries to
add the redirect URI for you. Watch the browser: if a step misses, finish
it by hand while the window is held open.

Chrome is closed before the run starts.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSetup(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file overlaid on the built-in defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Root-only flags
	rootCmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client id (default: $GOOGLE_CLIENT_ID)")
	rootCmd.Flags().StringVar(&projectID, "project", "", "Google Cloud project id")
	rootCmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "redirect URI to add")
	rootCmd.Flags().IntVar(&port, "port", 0, "Chrome remote debugging port")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for screenshots and the scratch profile")

	rootCmd.AddCommand(DoctorCmd())
	rootCmd.AddCommand(SecretCmd())
	rootCmd.AddCommand(VersionCmd())

	return rootCmd
}

// loadConfig applies --config and the root flags on top of ServerConfig.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := *ServerConfig
	if cfgFile != "" {
		if err := c.MergeFile(cfgFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("client-id") {
		c.Project.ClientID = clientID
	}
	if flags.Changed("project") {
		c.Project.ID = projectID
	}
	if flags.Changed("redirect-uri") {
		c.OAuth.RedirectURI = redirectURI
	}
	if flags.Changed("port") {
		c.Browser.DebugPort = port
	}
	if flags.Changed("output") {
		c.Output.Dir = outputDir
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
