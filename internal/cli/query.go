package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	negotiate "github.com/albertocavalcante/go-negotiate"
	"github.com/albertocavalcante/go-negotiate/manifest"
)

// errNoSource is returned by query commands when nothing matches.
var errNoSource = errors.New("no matching source")

func init() {
	for _, cmd := range []*cobra.Command{newestCmd, localCmd, localCompatibleCmd, satisfyingCmd} {
		addManifestFlag(cmd)
		rootCmd.AddCommand(cmd)
	}
}

var newestCmd = &cobra.Command{
	Use:   "newest",
	Short: "Print the declared source with the highest version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd.OutOrStdout(), func(r *negotiate.Registry) (negotiate.Source, error) {
			return r.Newest(), nil
		})
	},
}

var localCmd = &cobra.Command{
	Use:   "local",
	Short: `Print the source with exactly the "local" source's version`,
	Long: `Local prints the last declared source whose version equals that of the
source named "local". Without a local source it prints the newest.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd.OutOrStdout(), (*negotiate.Registry).Local)
	},
}

var localCompatibleCmd = &cobra.Command{
	Use:   "local-compatible",
	Short: `Print the source compatible (^) with the "local" source`,
	Long: `Local-compatible prints the last declared source whose version is caret
compatible with that of the source named "local". Without a local source it
prints the newest.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd.OutOrStdout(), (*negotiate.Registry).LocalCompatible)
	},
}

var satisfyingCmd = &cobra.Command{
	Use:   "satisfying REQUIREMENT",
	Short: "Print the last declared source satisfying REQUIREMENT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd.OutOrStdout(), func(r *negotiate.Registry) (negotiate.Source, error) {
			return r.Satisfying(args[0])
		})
	},
}

func runQuery(w io.Writer, query func(*negotiate.Registry) (negotiate.Source, error)) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	reg, err := registryFor(m)
	if err != nil {
		return err
	}

	src, err := query(reg)
	if err != nil {
		return err
	}
	if src == nil {
		return errNoSource
	}
	_, err = fmt.Fprintf(w, "%s %s\n", sourceName(src), src.Version())
	return err
}

// registryFor builds a registry holding every declared source. Its deferred
// Init is never flushed, so nothing is polyfilled.
func registryFor(m *manifest.Manifest) (*negotiate.Registry, error) {
	reg, err := negotiate.FromPrevious(
		negotiate.PlainConfig{Config: m.Config()},
		negotiate.WithScheduler(&negotiate.ManualScheduler{}),
		negotiate.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	for _, s := range m.Sources {
		reg.Register(s.Name, negotiate.NewRecordingSource(s.Name, s.Version))
	}
	return reg, nil
}

func sourceName(src negotiate.Source) string {
	if n, ok := src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", src)
}
