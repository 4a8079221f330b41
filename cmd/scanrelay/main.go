// Command scanrelay serves a small HTTP API over locally installed
// reconnaissance tools. Each run request spawns the tool as a child process
// and relays its output live as server-sent events, one event per line.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/scanrelay/scanrelay/pkg/config"
	"github.com/scanrelay/scanrelay/pkg/defaults"
	"github.com/scanrelay/scanrelay/pkg/duration"
	"github.com/scanrelay/scanrelay/pkg/metrics"
	"github.com/scanrelay/scanrelay/pkg/registry"
	"github.com/scanrelay/scanrelay/pkg/runner"
	"github.com/scanrelay/scanrelay/pkg/server"
	"github.com/scanrelay/scanrelay/pkg/ui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.ParseFlags(args)
	if err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitUserError
	}

	ui.SetSilent(cfg.Silent)
	ui.SetNoColor(cfg.NoColor)
	ui.PrintBanner()

	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	catalog, err := config.BuildCatalog(cfg.ToolsFile)
	if err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitUserError
	}
	reg, err := registry.New(catalog, nil)
	if err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitUserError
	}

	entries := reg.List()
	available := 0
	for _, e := range entries {
		if e.Available {
			available++
		}
	}
	if available == 0 {
		ui.PrintWarning("no tool binaries found on PATH; /run will reject every request")
	}

	collector := metrics.New()
	srv := server.New(server.Options{
		Registry:   reg,
		Runner:     runner.New(nil, log),
		Metrics:    collector,
		Logger:     log,
		MaxRuns:    cfg.MaxRuns,
		SpawnRate:  cfg.SpawnRate,
		SpawnBurst: cfg.SpawnBurst,
	})

	ui.PrintConfigBanner(map[string]string{
		"Listen":     cfg.ListenAddr,
		"Tools":      strconv.Itoa(len(entries)),
		"Available":  strconv.Itoa(available),
		"Tools File": cfg.ToolsFile,
		"Max Runs":   formatLimit(cfg.MaxRuns),
		"Spawn Rate": formatLimit(cfg.SpawnRate) + "/s",
		"Metrics":    "http://" + hostFor(cfg.ListenAddr) + "/metrics",
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: duration.ServerReadHeader,
		MaxHeaderBytes:    defaults.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	ui.PrintSuccess("serving on " + cfg.ListenAddr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ui.PrintError("serve: " + err.Error())
			return defaults.ExitNetworkError
		}
	case <-ctx.Done():
		stop()
		ui.PrintInfo("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), duration.ServerShutdown)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown incomplete", slog.String("error", err.Error()))
			return defaults.ExitInternalError
		}
	}

	return defaults.ExitSuccess
}

// formatLimit renders an admission limit, with 0 meaning no limit.
func formatLimit(n int) string {
	if n == 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

// hostFor turns a listen address into something clickable. A bare ":port"
// binds all interfaces; localhost is the friendliest thing to print for it.
func hostFor(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
