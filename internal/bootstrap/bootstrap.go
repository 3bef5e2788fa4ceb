// Package bootstrap provides dependency initialization for the crop
// service.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/speakersplit/speakersplit/internal/config"
	"github.com/speakersplit/speakersplit/internal/crop"
	"github.com/speakersplit/speakersplit/internal/media"
	"github.com/speakersplit/speakersplit/internal/run"
	"github.com/speakersplit/speakersplit/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	CropService *crop.Service
	Prober      media.Prober
	Store       storage.Storage
}

// NewDependencies creates and initializes all dependencies for the
// application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	prober := media.NewFFprobeProber(cfg.FFprobePath)
	cropper := media.NewFFmpegCropper(cfg.FFmpegPath)
	repo := run.NewMemoryRepository()

	svc := crop.NewService(
		repo,
		prober,
		cropper,
		store,
		logger,
		crop.WithS3Upload(cfg.S3Enabled()),
	)

	return &Dependencies{
		CropService: svc,
		Prober:      prober,
		Store:       store,
	}, nil
}

// initStorage creates the appropriate storage backend based on
// configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.OutputDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("output_dir", cfg.OutputDir),
	)
	return localStore, nil
}
