// Package main is the entry point for the slippage sentinel agent.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/DeganAI/slippage-sentinel/business/chains"
	chainsDI "github.com/DeganAI/slippage-sentinel/business/chains/di"
	"github.com/DeganAI/slippage-sentinel/business/payment"
	paymentDI "github.com/DeganAI/slippage-sentinel/business/payment/di"
	"github.com/DeganAI/slippage-sentinel/business/slippage"
	slippageDI "github.com/DeganAI/slippage-sentinel/business/slippage/di"
	"github.com/DeganAI/slippage-sentinel/internal/agent"
	"github.com/DeganAI/slippage-sentinel/internal/apm"
	"github.com/DeganAI/slippage-sentinel/internal/config"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
	"github.com/DeganAI/slippage-sentinel/internal/metrics"
	"github.com/DeganAI/slippage-sentinel/internal/monolith"
	"github.com/DeganAI/slippage-sentinel/internal/ratelimit"
	"github.com/DeganAI/slippage-sentinel/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	tuiMode := flag.Bool("tui", false, "Show the terminal dashboard instead of logs")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("slippage-sentinel %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode
	if version != "dev" {
		cfg.App.Version = version
	}

	level := logger.ParseLevel(cfg.App.LogLevel)

	var (
		log  *logger.Logger
		dash *ui.Dashboard
	)
	if tuiMode {
		// the dashboard owns the screen; warnings and errors are shown there
		dash = ui.NewDashboard(tea.WithAltScreen())
		log = logger.New(io.Discard, level, cfg.App.Name, dash.LogHook())
	} else {
		log = logger.New(os.Stderr, level, cfg.App.Name, nil)
	}
	log.Info(ctx, "starting slippage sentinel",
		"version", cfg.App.Version,
		"commit", commit,
		"environment", cfg.App.Environment,
		"free_mode", cfg.Payment.FreeMode,
	)

	traceProvider, err := apm.NewTraceProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer traceProvider.Stop()

	var metricsHandler http.Handler
	if cfg.Telemetry.Enabled {
		mp, err := metrics.NewMetricProvider(ctx, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer mp.Shutdown(context.WithoutCancel(ctx))
		metricsHandler = mp.Handler()
	}

	mono := monolith.New(cfg, log,
		&chains.Module{},
		&slippage.Module{},
		&payment.Module{},
	)
	defer mono.Close()

	if err := mono.Boot(ctx); err != nil {
		return fmt.Errorf("failed to boot modules: %w", err)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.ClientTTL)
		mono.OnClose(limiter)
	}

	deps := agent.Deps{
		Config:    cfg,
		Logger:    log,
		Estimator: slippageDI.GetEstimator(mono.Services()),
		Chains:    chainsDI.GetChainService(mono.Services()),
		Gate:      paymentDI.GetGate(mono.Services()),
		Health:    mono.Health(),
		Limiter:   limiter,
		Metrics:   metricsHandler,
	}
	if dash != nil {
		deps.Observer = dash
	}
	srv := agent.NewServer(deps)

	if !tuiMode {
		return srv.Run(ctx)
	}
	return runTUI(ctx, cfg, srv, dash, deps.Gate.Price().String())
}

func runTUI(ctx context.Context, cfg *config.Config, srv *agent.Server, dash *ui.Dashboard, price string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr(), err)
	}

	dash.Send(ui.StartedMsg{
		Addr:      ln.Addr().String(),
		PublicURL: cfg.Server.PublicURL(),
		FreeMode:  cfg.Payment.FreeMode,
		Price:     price,
	})

	errCh := make(chan error, 1)
	go func() {
		err := srv.Serve(ctx, ln)
		dash.Send(ui.StoppedMsg{Err: err})
		errCh <- err
	}()

	if err := dash.Run(ctx); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// quitting the dashboard stops the server
	cancel()
	return <-errCh
}
