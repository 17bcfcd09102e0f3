// Command txpoold wires a TxPool to an in-memory demo chain snapshot and a
// no-op verifier, exposing Prometheus metrics over HTTP, for local
// exercising of the pool outside of a full node (spec §9's intended
// embedding, minus the real Snapshot/Verifier a node supplies).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ckb-go/txpool/internal/config"
	"github.com/ckb-go/txpool/internal/logging"
	"github.com/ckb-go/txpool/internal/metrics"
	"github.com/ckb-go/txpool/txpool"
	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"
)

const serverShutdownTimeout = 5 * time.Second

func main() {
	app := &cli.App{
		Name:  "txpoold",
		Usage: "run a standalone transaction pool demo",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a config file (yaml/json/toml)"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace|debug|info|warn|error|crit"},
			&cli.BoolFlag{Name: "log-json", Usage: "emit structured JSON logs"},
			&cli.StringFlag{Name: "metrics-addr", Value: "127.0.0.1:6060", Usage: "Prometheus /metrics listen address"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "txpoold:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log, err := logging.New("txpoold", logging.Config{
		Level: c.String("log-level"),
		JSON:  c.Bool("log-json"),
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	fs := pflag.NewFlagSet("txpoold", pflag.ContinueOnError)
	config.BindFlags(fs)
	if p := c.String("config"); p != "" {
		_ = fs.Set("config", p)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	snap := newDemoSnapshot(10_000_000)
	tp := txpool.New(cfg, snap, demoVerifier{})

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: c.String("metrics-addr"), Handler: mux}
	go func() {
		log.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", "err", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("txpool running", "max_tx_pool_size", cfg.MaxTxPoolSize, "min_fee_rate", cfg.MinFeeRate, "rbf_enabled", cfg.RBFEnabled())
	runErr := tp.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	if runErr == context.Canceled {
		return nil
	}
	return runErr
}
