package main

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/reactive"
	"github.com/vango-dev/reactive/pkg/telemetry"
)

type benchConfig struct {
	Profile    string
	Iterations int
	Width      int
	Depth      int
	JSONOutput string
	Metrics    bool
}

func benchCmd(g *globalFlags) *cobra.Command {
	var (
		bc   benchConfig
		list bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a propagation benchmark",
		Long: `Build a reactive graph, write to its root repeatedly and report
per-write latency, recomputation counts and allocations per write.

Profiles:
  ` + strings.Join(profileNames(), ", ") + `

Every profile also checks that effects never observe a half-updated
graph and reports violations as glitches.

Examples:
  reactive bench
  reactive bench --profile=chain --depth=200
  reactive bench --profile=fanout --width=1000 --json=report.json
  reactive bench --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, name := range profileNames() {
					info(out, "%-11s %s", name, profiles[name].Description)
				}
				return nil
			}

			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if bc.Profile == "" {
				bc.Profile = cfg.Bench.Profile
			}
			if bc.Iterations == 0 {
				bc.Iterations = cfg.Bench.Iterations
			}
			if bc.Width == 0 {
				bc.Width = cfg.Bench.Width
			}
			if bc.Depth == 0 {
				bc.Depth = cfg.Bench.Depth
			}

			var (
				hooks    reactive.Hooks
				gatherer prometheus.Gatherer
			)
			if bc.Metrics {
				registry := prometheus.NewRegistry()
				hooks = telemetry.Prometheus(telemetry.WithRegistry(registry))
				gatherer = registry
			}
			configureRuntime(cfg, logger, hooks)
			defer configureRuntime(cfg, logger, nil)

			report, err := runBench(bc, gatherer)
			if err != nil {
				return err
			}

			writeSummary(out, report)
			if report.Graph.Glitches > 0 {
				fmt.Fprintln(out)
				warn(out, "%d glitches observed", report.Graph.Glitches)
			}
			if bc.JSONOutput != "" {
				if err := writeJSON(bc.JSONOutput, out, report); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				if bc.JSONOutput != "-" {
					fmt.Fprintln(out)
					success(out, "Report written to %s", bc.JSONOutput)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&bc.Profile, "profile", "p", "", "Benchmark profile (default from reactive.json)")
	cmd.Flags().IntVarP(&bc.Iterations, "iterations", "n", 0, "Number of root writes (default from reactive.json)")
	cmd.Flags().IntVar(&bc.Width, "width", 0, "Fan-out of the graph (default per profile)")
	cmd.Flags().IntVar(&bc.Depth, "depth", 0, "Chain depth of the graph (default per profile)")
	cmd.Flags().StringVar(&bc.JSONOutput, "json", "", "Write the JSON report to a file, or - for stdout")
	cmd.Flags().BoolVar(&bc.Metrics, "metrics", false, "Record Prometheus metrics during the run and print them")
	cmd.Flags().BoolVar(&list, "list", false, "List the available profiles")

	return cmd
}

// runBench builds the profile's graph under a fresh owner, performs the
// writes and measures them. The graph is disposed before returning.
func runBench(bc benchConfig, gatherer prometheus.Gatherer) (benchReport, error) {
	p, ok := profiles[bc.Profile]
	if !ok {
		return benchReport{}, errors.New("L001").
			WithDetail(fmt.Sprintf("Unknown profile %q. Available: %s", bc.Profile, strings.Join(profileNames(), ", ")))
	}
	if bc.Iterations <= 0 {
		return benchReport{}, errors.New("C003").
			WithDetail(fmt.Sprintf("iterations must be positive, got %d", bc.Iterations))
	}

	s := benchSample{profile: p, params: p.params(bc.Width, bc.Depth)}
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()
	reactive.WithOwner(owner, func() {
		s.graph = p.build(s.params)
	})

	s.latencies = make([]time.Duration, bc.Iterations)

	runtime.GC()
	s.heapBefore = readHeapCounters()
	s.statsBefore = reactive.Default().Stats()

	start := time.Now()
	for i := range s.latencies {
		t := time.Now()
		s.graph.write(i)
		s.latencies[i] = time.Since(t)
	}
	s.elapsed = time.Since(start)

	s.statsAfter = reactive.Default().Stats()
	s.heapAfter = readHeapCounters()

	slices.Sort(s.latencies)
	report := buildReport(s)

	if gatherer != nil {
		m, err := gatherMetrics(gatherer)
		if err != nil {
			return report, fmt.Errorf("gather metrics: %w", err)
		}
		report.Metrics = m
	}
	return report, nil
}
