// Package cli implements the negotiate command.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-negotiate/internal/config"
	"github.com/albertocavalcante/go-negotiate/manifest"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	cfgFile      string
	manifestPath string
	logLevel     string

	settings *config.Settings
	logger   = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Compare versions and simulate source negotiation",
	Long: `negotiate compares semantic versions, checks them against requirements,
and replays how several installations of one library, declared in a manifest,
negotiate which of them is authoritative.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			s.LogLevel = logLevel
		}
		level, err := s.Level()
		if err != nil {
			return err
		}
		settings = s
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.negotiate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error")
}

// addManifestFlag registers -m on commands that read a manifest.
func addManifestFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "",
		"declaration file (.star or .yaml); defaults to the configured manifest")
}

// loadManifest loads the manifest named by -m, falling back to the config.
func loadManifest() (*manifest.Manifest, error) {
	path := manifestPath
	if path == "" && settings != nil {
		path = settings.Manifest
	}
	if path == "" {
		return nil, errors.New("no manifest: pass -m or set manifest in the config file")
	}
	return manifest.Load(path)
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}
