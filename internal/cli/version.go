package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	negotiate "github.com/albertocavalcante/go-negotiate"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, buildVersion)
			return nil
		}

		if versionJSON {
			info := map[string]string{
				"version":  buildVersion,
				"commit":   buildCommit,
				"date":     buildDate,
				"protocol": negotiate.APIVersion,
			}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "negotiate version %s (commit: %s, built: %s, protocol: %s)\n",
			buildVersion, buildCommit, buildDate, negotiate.APIVersion)
		return nil
	},
}
