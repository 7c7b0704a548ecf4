package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	negotiate "github.com/albertocavalcante/go-negotiate"
	"github.com/albertocavalcante/go-negotiate/manifest"
)

var (
	initUpgrade bool
	initMetrics bool
)

func init() {
	addManifestFlag(initCmd)
	initCmd.Flags().BoolVar(&initUpgrade, "upgrade", false,
		"give each source a newer protocol version so that it supersedes the registry before it")
	initCmd.Flags().BoolVar(&initMetrics, "metrics", false, "print negotiation counters")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Replay negotiation between the declared sources",
	Long: `Init treats every declared source as a separately loaded bundle. Each one
joins the shared slot in declaration order, then the deferred negotiation runs
once and the newest source is polyfilled, unless polyfills are disabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		return runInit(cmd.OutOrStdout(), m, initUpgrade, initMetrics)
	},
}

func runInit(w io.Writer, m *manifest.Manifest, upgrade, showMetrics bool) error {
	cfg := m.Config()
	if settings != nil && settings.Polyfills != nil {
		p := *settings.Polyfills
		cfg.Polyfills = &p
	}

	var (
		slot     = negotiate.NewSlot(negotiate.PlainConfig{Config: cfg})
		promReg  = prometheus.NewRegistry()
		metrics  = negotiate.NewMetrics(promReg)
		cache    = negotiate.NewRequirementCache(time.Minute)
		sources  = make([]*negotiate.RecordingSource, 0, len(m.Sources))
		reg      *negotiate.Registry
		built    int
		baseOpts = []negotiate.Option{
			negotiate.WithLogger(logger),
			negotiate.WithMetrics(metrics),
			negotiate.WithRequirementCache(cache),
		}
	)

	join := func(name string, src negotiate.Source, opts []negotiate.Option) error {
		r, err := negotiate.Negotiate(slot, name, src, opts...)
		if err != nil {
			return err
		}
		if r != reg {
			built++
			reg = r
		}
		return nil
	}

	for i, s := range m.Sources {
		opts := baseOpts
		if upgrade {
			opts = append(opts[:len(opts):len(opts)], negotiate.WithAPIVersion(fmt.Sprintf("0.1.%d", i)))
		}
		src := negotiate.NewRecordingSource(s.Name, s.Version)
		sources = append(sources, src)
		if err := join(s.Name, src, opts); err != nil {
			return err
		}
	}
	if reg == nil {
		if err := join("", nil, baseOpts); err != nil {
			return err
		}
	}

	slot.Ready()

	fmt.Fprintf(w, "registries: %d (%d superseded)\n", built, built-1)
	name, ok := reg.NegotiatedName()
	if !ok {
		return negotiate.ErrNoRegisteredSource
	}
	src, _ := reg.Source(name)
	fmt.Fprintf(w, "negotiated: %s %s\n", name, src.Version())

	polyfilled := "none (polyfills disabled)"
	for _, s := range sources {
		if s.Polyfills() > 0 {
			polyfilled = s.Name()
		}
	}
	fmt.Fprintf(w, "polyfilled: %s\n", polyfilled)

	if showMetrics {
		return writeMetrics(w, promReg)
	}
	return nil
}

// writeMetrics prints every gathered counter as name{labels} value.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, l := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			line := mf.GetName()
			if len(labels) > 0 {
				line += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", line, metric.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
