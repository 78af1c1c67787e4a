package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tailored-agentic-units/assistant/core/config"
	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		srvCfg  = server.DefaultConfig()
		timeout time.Duration
		trace   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if trace {
				shutdown, err := installTracer()
				if err != nil {
					return err
				}
				defer shutdown(context.Background())
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())

			base, err := observability.Resolve(cfg.Observers...)
			if err != nil {
				return err
			}
			registry := prometheus.NewRegistry()
			observer := observability.NewMultiObserver(
				base,
				observability.NewMetricsObserver(registry),
				observability.NewTraceObserver(),
			)

			k, err := kernel.New(cfg, kernel.WithObserver(observer))
			if err != nil {
				return err
			}
			defer k.Close()

			srvCfg.Merge(&server.Config{RequestTimeout: config.Duration(timeout)})
			return server.New(srvCfg, k, registry, logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&srvCfg.Addr, "addr", srvCfg.Addr, "Listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request turn timeout (default 2m)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Export trace spans to stdout")
	return cmd
}

// installTracer exports spans to stdout and returns the provider shutdown.
func installTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
