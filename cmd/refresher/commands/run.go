// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xmidt-org/refresher"
	"github.com/xmidt-org/refresher/internal/config"
	"github.com/xmidt-org/refresher/internal/poller"
	"github.com/xmidt-org/refresher/internal/tracing"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newRunCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the refresher daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}

			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := newDaemon(ctx, cfg, logger)
			if err != nil {
				logger.Error("unable to create daemon", zap.Error(err))
				return err
			}

			l, err := net.Listen("tcp", cfg.Listen)
			if err != nil {
				logger.Error("unable to listen", zap.String("address", cfg.Listen), zap.Error(err))
				return err
			}

			return d.run(ctx, l)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "refresher.yaml", "path to the YAML configuration file")
	return cmd
}

// daemon holds the running components of the refresher process.
type daemon struct {
	logger   *zap.Logger
	poller   *poller.Poller
	updater  *refresher.Updater[struct{}, poller.Result]
	tracing  *tracing.Provider
	registry *prometheus.Registry
	server   *http.Server
}

func newDaemon(ctx context.Context, cfg *config.Config, logger *zap.Logger) (d *daemon, err error) {
	d = &daemon{
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := refresher.NewMetrics(d.registry, "")
	if err != nil {
		return nil, err
	}

	d.tracing, err = tracing.New(ctx, cfg.Tracing, "refresher", Version, logger)
	if err != nil {
		return nil, err
	}

	d.poller, err = poller.New(
		poller.Config{
			URL:     cfg.Target.URL,
			Timeout: cfg.Target.Timeout,
		},
		logger,
	)

	if err != nil {
		return nil, err
	}

	op, err := refresher.NewOperation[struct{}, poller.Result](
		d.poller.Poll,
		refresher.WithLogger(logger),
		refresher.WithDefaultUpdateInterval(cfg.Interval),
		refresher.WithThrottleMargin(cfg.ThrottleMargin),
	)

	if err != nil {
		return nil, err
	}

	d.updater, err = refresher.NewUpdater(
		op,
		refresher.WithLogger(logger),
		refresher.WithName(cfg.Name),
		refresher.WithMetadata(refresher.Map(cfg.Metadata)),
		refresher.WithStopTimeout(cfg.StopTimeout),
		refresher.WithListeners(metrics),
		refresher.WithCycleObserver(metrics),
		refresher.WithTracer(d.tracing.Tracer(refresher.TracerName)),
	)

	if err != nil {
		return nil, err
	}

	d.updater.AddUpdatedListener(refresher.UpdatedListenerFunc[poller.Result](func(e refresher.UpdatedEvent[poller.Result]) {
		logger.Debug("refreshed",
			zap.Bool("changed", e.Result.Changed),
			zap.Bool("notModified", e.Result.NotModified),
			zap.Duration("duration", e.Duration),
		)
	}))

	status, err := refresher.NewHandler(
		d.updater,
		refresher.WithErrorer(func(err error) {
			logger.Warn("unable to write status response", zap.Error(err))
		}),
	)

	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /status", status)
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /refresh", d.refresh)

	d.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return d, nil
}

// refreshResponse is the body written by the refresh endpoint.
type refreshResponse struct {
	Changed bool   `json:"changed"`
	Digest  string `json:"digest,omitempty"`
	Error   string `json:"error,omitempty"`
}

// refresh performs an immediate, throttled refresh on behalf of a client.
func (d *daemon) refresh(response http.ResponseWriter, request *http.Request) {
	result, err := d.updater.Update(request.Context(), struct{}{})

	var (
		code = http.StatusOK
		body = refreshResponse{
			Changed: result.Changed,
			Digest:  result.Digest,
		}
	)

	switch {
	case err == nil:

	case errors.Is(err, refresher.ErrNotAllowed):
		code = http.StatusTooManyRequests
		body.Error = err.Error()

	case errors.Is(err, refresher.ErrCancelled):
		code = http.StatusConflict
		body.Error = err.Error()

	default:
		code = http.StatusBadGateway
		body.Error = err.Error()
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(code)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		d.logger.Warn("unable to write refresh response", zap.Error(err))
	}
}

// run starts the updater and serves on l until ctx is done or the server fails.
// SIGHUP triggers an immediate refresh.
func (d *daemon) run(ctx context.Context, l net.Listener) error {
	if err := d.updater.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.logger.Info("serving", zap.Stringer("address", l.Addr()))
		if err := d.server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		for {
			select {
			case <-gctx.Done():
				d.logger.Info("shutting down")
				return d.shutdown()

			case <-hup:
				d.logger.Info("refresh requested by signal")
				d.updater.Trigger()
			}
		}
	})

	return g.Wait()
}

// shutdown stops the server and then the updater, and flushes traces.
func (d *daemon) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := d.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if err := d.updater.Stop(ctx); err != nil && !errors.Is(err, refresher.ErrNotRunning) {
		d.logger.Warn("updater did not stop cleanly", zap.Error(err))
	}

	d.updater.Close()

	if err := d.tracing.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}

	return errors.Join(errs...)
}
