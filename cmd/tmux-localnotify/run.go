package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/cristianoliveira/tmux-localnotify/internal/config"
	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
	"github.com/cristianoliveira/tmux-localnotify/internal/manager"
	"github.com/cristianoliveira/tmux-localnotify/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type reconciler interface {
	Reconcile(ctx context.Context) (manager.ReconcileReport, error)
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var intervalFlag time.Duration
	var metricsAddrFlag string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the notification daemon",
		Long: `tmux-localnotify run - Run the notification daemon

Fires due notifications. Scheduling from other tmux-localnotify processes is
picked up on the next reconciliation, which also re-arms everything still
pending after a restart.

USAGE:
    tmux-localnotify run [OPTIONS]

OPTIONS:
    --interval <duration>   Reconciliation interval (default: reconcile_interval)
    --metrics-addr <addr>   Serve Prometheus metrics on this address
    -h, --help              Show this help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval := intervalFlag
			if interval <= 0 {
				interval = config.GetDuration("reconcile_interval", 30*time.Second)
			}
			addr := metricsAddrFlag
			if addr == "" {
				addr = config.Get("metrics_addr", "")
			}
			log := logging.GetGlobal().With("component", "daemon")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr != "" {
				srv, bound, err := startMetrics(addr, log)
				if err != nil {
					return fmt.Errorf("run: metrics: %w", err)
				}
				log.Info("serving metrics", "addr", bound)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			rt, err := openRuntimeFunc(ctx, true)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			defer func() {
				if err := rt.Close(); err != nil {
					log.Warn("close failed", "error", err.Error())
				}
			}()

			log.Info("daemon started", "interval", interval.String())
			serve(ctx, rt.Manager, interval, log)
			log.Info("daemon stopped")
			return nil
		},
	}

	runCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "Reconciliation interval")
	runCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Prometheus metrics listen address")

	return runCmd
}

// serve reconciles immediately and then on every tick until ctx is done.
func serve(ctx context.Context, r reconciler, interval time.Duration, log logging.Logger) {
	reconcile := func() {
		if _, err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
			log.Error("reconcile failed", "error", err.Error())
		}
	}
	reconcile()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reconcile()
		}
	}
}

// startMetrics registers the collectors and serves them on addr. It returns
// the bound address.
func startMetrics(addr string, log logging.Logger) (*http.Server, string, error) {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, "", err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err.Error())
		}
	}()
	return srv, ln.Addr().String(), nil
}

// runCmd represents the run command.
var runCmd = NewRunCmd()

func init() {
	cmd.RootCmd.AddCommand(runCmd)
}
