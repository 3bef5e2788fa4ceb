// Package crop orchestrates the server-side export: it converts the
// submitted ratio-space regions into pixel windows, cuts them out of
// the source video with ffmpeg, and records the run.
package crop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/speakersplit/speakersplit/internal/media"
	"github.com/speakersplit/speakersplit/internal/region"
	"github.com/speakersplit/speakersplit/internal/run"
	"github.com/speakersplit/speakersplit/internal/storage"
)

// ErrTwoRegionsRequired is returned when the input does not hold
// exactly two regions.
var ErrTwoRegionsRequired = errors.New("crop: exactly two regions must be provided")

// Input contains the parameters for one crop run.
type Input struct {
	// SourcePath is the video the regions were selected over.
	SourcePath string
	// Regions are the ratio-space crop specs, in submission order.
	Regions []region.CropSpec
}

// Service executes crop runs.
type Service struct {
	repo     run.Repository
	prober   media.Prober
	cropper  media.Cropper
	store    storage.Storage
	logger   *slog.Logger
	uploadS3 bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithS3Upload enables pushing exported crops to S3. The storage must
// be S3-backed or every upload fails with ErrS3NotConfigured.
func WithS3Upload(enabled bool) ServiceOption {
	return func(s *Service) {
		s.uploadS3 = enabled
	}
}

// NewService creates a crop service.
func NewService(repo run.Repository, prober media.Prober, cropper media.Cropper, store storage.Storage, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:    repo,
		prober:  prober,
		cropper: cropper,
		store:   store,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRun retrieves a run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*run.Run, error) {
	return s.repo.FindByID(ctx, id)
}

// Process executes a crop run synchronously: probe the source, cut
// both regions concurrently, record the outputs. The returned run is
// terminal, COMPLETED or FAILED; errors are also reflected on it.
func (s *Service) Process(ctx context.Context, input Input) (*run.Run, error) {
	if len(input.Regions) != 2 {
		return nil, ErrTwoRegionsRequired
	}

	r := run.New()
	r.Regions = input.Regions
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("crop: save run: %w", err)
	}

	s.logger.Info("crop run accepted",
		slog.String("run_id", r.ID),
		slog.String("source", input.SourcePath),
	)

	if err := r.Start(); err != nil {
		return nil, err
	}

	videoW, videoH, err := s.prober.Dimensions(ctx, input.SourcePath)
	if err != nil {
		return s.failRun(ctx, r, fmt.Errorf("crop: probe source dimensions: %w", err))
	}
	r.SetSource(input.SourcePath, videoW, videoH)

	outputs := make([]run.Output, len(input.Regions))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range input.Regions {
		g.Go(func() error {
			window := PixelWindow(spec, videoW, videoH)
			filename := fmt.Sprintf("segment_%d.mp4", i+1)
			dst := s.store.OutputPath(filename)

			if err := s.cropper.Crop(gctx, input.SourcePath, dst, window); err != nil {
				return fmt.Errorf("export %s: %w", filename, err)
			}

			out := run.Output{
				Label:    fmt.Sprintf("Speaker %d", i+1),
				Filename: filename,
				URL:      "/outputs/" + filename,
				Crop:     window,
			}

			if s.uploadS3 {
				url, err := s.uploadOutput(gctx, filename)
				if err != nil {
					return fmt.Errorf("upload %s: %w", filename, err)
				}
				out.URL = url
			}

			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.failRun(ctx, r, err)
	}

	r.SetOutputs(outputs)
	if err := r.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("crop: save run: %w", err)
	}

	s.logger.Info("crop run completed",
		slog.String("run_id", r.ID),
		slog.Int("outputs", len(outputs)),
	)

	return r, nil
}

// failRun marks the run FAILED, persists it, and returns the original
// error with the run attached for the handler to report.
func (s *Service) failRun(ctx context.Context, r *run.Run, cause error) (*run.Run, error) {
	s.logger.Error("crop run failed",
		slog.String("run_id", r.ID),
		slog.String("error", cause.Error()),
	)
	if err := r.Fail(cause.Error()); err != nil {
		s.logger.Error("run state transition failed",
			slog.String("run_id", r.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.repo.Save(ctx, r); err != nil {
		s.logger.Error("failed to persist failed run",
			slog.String("run_id", r.ID),
			slog.String("error", err.Error()),
		)
	}
	return r, cause
}

// uploadOutput streams a locally exported crop to S3.
func (s *Service) uploadOutput(ctx context.Context, filename string) (string, error) {
	f, err := s.store.OpenOutput(ctx, filename)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return s.store.UploadOutput(ctx, filename, f)
}

// PixelWindow converts a ratio-space crop spec into a pixel window for
// the given source dimensions. Sizes round to the nearest pixel and are
// clamped into the frame; the origin is then clamped so the window
// never extends past an edge.
func PixelWindow(spec region.CropSpec, videoW, videoH int) media.CropWindow {
	width := clampInt(int(math.Round(spec.Width*float64(videoW))), 1, videoW)
	height := clampInt(int(math.Round(spec.Height*float64(videoH))), 1, videoH)
	x := clampInt(int(math.Round(spec.X*float64(videoW))), 0, videoW-width)
	y := clampInt(int(math.Round(spec.Y*float64(videoH))), 0, videoH-height)

	return media.CropWindow{X: x, Y: y, Width: width, Height: height}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
