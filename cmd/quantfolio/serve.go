package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/api"
	"github.com/quantfolio/quantfolio/internal/api/job"
	"github.com/quantfolio/quantfolio/internal/metrics"
	signalstore "github.com/quantfolio/quantfolio/internal/storage/signal"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the quantfolio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := mustLogger()
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	results, err := buildArchive(cfg)
	if err != nil {
		return err
	}

	registry := strategy.NewRegistry()
	for _, name := range cfg.Strategy.Disabled {
		if err := registry.Deregister(name); err != nil {
			return fmt.Errorf("disabling strategy: %w", err)
		}
		log.Info("strategy disabled", zap.String("strategy", name))
	}

	log.Info("starting quantfolio server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", provider.Name()),
	)

	server := api.NewServer(cfg, api.Deps{
		Signals:    signalstore.NewMemoryStore(cfg.Storage.Signals.MaxSize),
		Jobs:       job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour),
		Provider:   provider,
		Engine:     strategy.NewEngine(log),
		Strategies: registry,
		Archive:    results,
		Metrics:    metrics.NewRegistry(),
		Logger:     log,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Fprintln(os.Stderr)
	log.Info("shutting down quantfolio server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
