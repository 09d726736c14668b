package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/collector"
	"github.com/quantfolio/quantfolio/internal/collector/csvfile"
	"github.com/quantfolio/quantfolio/internal/collector/yahoo"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/logger"
	"github.com/quantfolio/quantfolio/internal/storage/archive"
)

// loadConfig reads the config file, falling back to defaults when no
// file was given.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
		cfg := config.Defaults()
		return cfg, cfg.Validate()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func mustLogger() *zap.Logger {
	return logger.Must(debug)
}

// buildProvider creates the configured price data provider.
func buildProvider(cfg *config.Config) (collector.Provider, error) {
	switch cfg.Collector.Provider {
	case "yahoo":
		return yahoo.New(yahoo.WithTimeout(cfg.Collector.Timeout)), nil
	case "csvfile":
		return csvfile.New(cfg.Collector.CSVDir), nil
	default:
		return nil, fmt.Errorf("unknown collector provider %q", cfg.Collector.Provider)
	}
}

// buildArchive creates the configured result archive.
func buildArchive(cfg *config.Config) (*archive.Results, error) {
	var store archive.Storage
	var err error

	switch cfg.Storage.Archive.Type {
	case "localfs":
		store, err = archive.NewLocalFS(cfg.Storage.Archive.Path)
	case "s3":
		s3 := cfg.Storage.Archive.S3
		store, err = archive.NewS3(archive.S3Config{
			Bucket:    s3.Bucket,
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Prefix:    s3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Storage.Archive.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	return archive.NewResults(store), nil
}
