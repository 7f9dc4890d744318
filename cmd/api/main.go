package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/cradoe/splitsy/internal/app"
	"github.com/cradoe/splitsy/internal/config"
	"github.com/cradoe/splitsy/internal/version"
	"github.com/lmittmann/tint"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.IsDevelopment() {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug, TimeFormat: time.Kitchen}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	application.StartWorkers(ctx)

	err = application.ServeHTTP(ctx)

	// consumers stop on cancellation; wait for them before connections close
	stop()
	application.WG.Wait()

	return err
}
