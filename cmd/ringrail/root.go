package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ib-77/ringrail/internal/config"
	"github.com/ib-77/ringrail/pkg/rail/core"
	"github.com/ib-77/ringrail/pkg/rail/telemetry"
)

type app struct {
	configPath  string
	logLevel    string
	logDev      bool
	metricsAddr string
	minCapacity int

	cfg     *config.Config
	log     *zap.Logger
	metrics *telemetry.Metrics
	server  *http.Server
}

func newRootCmd() *cobra.Command {
	return (&app{}).command()
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "ringrail",
		Short:         "Run integer pipelines on ring channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.logDev, "log-dev", false, "human readable console logs")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	flags.IntVar(&a.minCapacity, "min-capacity", 0, "minimum ring capacity per stage")

	root.AddCommand(newSumCmd(a), newBenchCmd(a))
	return root
}

// setup loads the config, applies flags that were set explicitly and builds
// the logger and metrics.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-dev") {
		cfg.Log.Development = a.logDev
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = a.metricsAddr
	}
	if flags.Changed("min-capacity") {
		cfg.Pipeline.MinCapacity = a.minCapacity
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := telemetry.NewLogger(telemetry.LogConfig{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return err
	}
	a.log = logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = telemetry.NewMetrics(reg)

	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr, reg)
	}
	return nil
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	a.log.Info("serving metrics", zap.String("addr", addr))
}

// run wraps a subcommand so that teardown happens on errors too. Cobra skips
// PersistentPostRun when RunE fails.
func (a *app) run(f func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown()
		return f(cmd, args)
	}
}

func (a *app) teardown() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) settings() core.Settings {
	return core.Settings{
		Logger:   a.log,
		Observer: a.metrics,
		Progress: telemetry.ProgressLogger(a.log, a.cfg.Pipeline.ProgressInterval),
	}
}
