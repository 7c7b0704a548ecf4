package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-negotiate/version"
)

func init() {
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(checkCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare A B",
	Short: "Print <, = or > for two versions",
	Long: `Compare prints how A orders against B by semantic version precedence.
Build metadata is ignored. If either version has a component that does not
parse, the two are unordered and "?" is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(cmd.OutOrStdout(), args[0], args[1])
	},
}

var checkCmd = &cobra.Command{
	Use:   "check REQUIREMENT VERSION",
	Short: "Print whether VERSION satisfies REQUIREMENT",
	Example: `  negotiate check "^1.2.0" 1.4.7
  negotiate check ">=1.0.0 <2.0.0 || ^3.0.0" 3.1.0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.OutOrStdout(), args[0], args[1])
	},
}

func runCompare(w io.Writer, a, b string) error {
	_, err := fmt.Fprintln(w, compareSymbol(version.Parse(a), version.Parse(b)))
	return err
}

func compareSymbol(a, b version.Version) string {
	switch {
	case a.HasPrecedenceOver(b):
		return ">"
	case b.HasPrecedenceOver(a):
		return "<"
	case a.IsEqual(b):
		return "="
	}
	return "?"
}

func runCheck(w io.Writer, requirement, v string) error {
	rng, err := version.ParseRequirement(requirement)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, rng.SatisfiedBy(version.Parse(v)))
	return err
}
