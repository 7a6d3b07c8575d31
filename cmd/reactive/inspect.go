package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/reactive/internal/config"
	"github.com/vango-dev/reactive/internal/demo"
	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/devtools"
	"github.com/vango-dev/reactive/pkg/reactive"
	"github.com/vango-dev/reactive/pkg/telemetry"
)

type inspectOptions struct {
	host     string
	port     int
	interval time.Duration
	steps    int
	trace    bool
}

func inspectCmd(g *globalFlags) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve the inspector for a live demo store",
		Long: `Start the devtools inspector over a demo todo store that is
edited on a timer.

Routes:
  GET /stats                         runtime and inspector counters
  GET /collections                   tracked collections
  GET /collections/{name}/changes    recent change records
  GET /metrics                       Prometheus metrics
  GET /changes                       WebSocket stream of change records

Examples:
  reactive inspect
  reactive inspect --port=7070 --interval=250ms
  reactive inspect --trace --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if opts.host != "" {
				cfg.Inspector.Host = opts.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Inspector.Port = opts.port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runInspect(ctx, cmd.OutOrStdout(), cfg, logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from reactive.json)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from reactive.json)")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "Delay between simulated edits (0 disables them)")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "Stop after this many edits (0 runs until interrupted)")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Log OpenTelemetry spans for transactions and actions")

	return cmd
}

// inspectSession is a demo store wired to an inspector and a metrics
// registry.
type inspectSession struct {
	store     *demo.Store
	inspector *devtools.Inspector
	registry  *prometheus.Registry
	closers   []func()
}

// newInspectSession configures the runtime with metrics hooks plus extra,
// seeds the demo store and tracks its collections.
func newInspectSession(cfg *config.Config, logger *slog.Logger, extra ...reactive.Hooks) (*inspectSession, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := append([]reactive.Hooks{telemetry.Prometheus(telemetry.WithRegistry(registry))}, extra...)
	configureRuntime(cfg, logger, telemetry.Combine(hooks...))

	store, err := demo.NewStore()
	if err != nil {
		return nil, err
	}

	s := &inspectSession{
		store:    store,
		registry: registry,
		inspector: devtools.NewInspector(
			devtools.WithLogger(logger),
			devtools.WithGatherer(registry),
			devtools.WithHistory(cfg.Inspector.History),
			devtools.WithClientBuffer(cfg.Inspector.ClientBuffer),
			devtools.WithCheckOrigin(originChecker(cfg.Inspector.AllowedOrigins)),
		),
	}
	for _, c := range store.Collections() {
		s.closers = append(s.closers, s.inspector.Track(c))
	}
	s.closers = append(s.closers, store.Start(logger))

	if err := store.Seed(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close stops tracking, disposes the store's effects and disconnects
// stream clients.
func (s *inspectSession) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	s.inspector.Close()
}

func runInspect(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, opts inspectOptions) error {
	var extra []reactive.Hooks
	if opts.trace {
		tp := newTracerProvider(logger)
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
		extra = append(extra, telemetry.OpenTelemetry(telemetry.WithTracerProvider(tp)))
	}

	session, err := newInspectSession(cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer session.Close()
	defer configureRuntime(cfg, logger, nil)

	ln, err := net.Listen("tcp", cfg.InspectorAddress())
	if err != nil {
		return errors.New("L002").
			WithDetail(fmt.Sprintf("Could not listen on %s", cfg.InspectorAddress())).
			Wrap(err)
	}

	server := &http.Server{
		Handler:           session.inspector.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	printBanner(out)
	fmt.Fprintln(out, "  inspect")
	fmt.Fprintln(out)
	success(out, "Inspector listening on http://%s", ln.Addr())
	for _, c := range session.inspector.Collections() {
		info(out, "tracking %s (%s)", c.Name, c.Kind)
	}
	fmt.Fprintln(out)

	loopErr := simulate(ctx, session.store, opts, serveErr)

	fmt.Fprintln(out, "\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("inspector shutdown failed", "error", err)
	}
	return loopErr
}

// simulate applies demo edits on the calling goroutine, which owns the
// reactive graph, until ctx is done, the step limit is reached or the
// server fails.
func simulate(ctx context.Context, store *demo.Store, opts inspectOptions, serveErr <-chan error) error {
	var tick <-chan time.Time
	if opts.interval > 0 {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := 0; opts.steps == 0 || n < opts.steps; {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serveErr:
			if stderrors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.New("L002").Wrap(err)
		case <-reactive.Deferred():
			reactive.RunDeferred()
		case <-tick:
			store.Step(n)
			n++
		}
	}
	return nil
}

// originChecker allows every origin when allowed is empty.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
