package crop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/speakersplit/speakersplit/internal/media"
	"github.com/speakersplit/speakersplit/internal/region"
	"github.com/speakersplit/speakersplit/internal/run"
)

// mockProber is a simple mock for media.Prober.
type mockProber struct {
	mock.Mock
}

func (m *mockProber) Dimensions(ctx context.Context, path string) (int, int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Int(1), args.Error(2)
}

// mockCropper is a simple mock for media.Cropper.
type mockCropper struct {
	mock.Mock
}

func (m *mockCropper) Crop(ctx context.Context, src, dst string, window media.CropWindow) error {
	args := m.Called(ctx, src, dst, window)
	return args.Error(0)
}

// mockStorage is a simple mock for storage.Storage.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) OutputPath(name string) string {
	args := m.Called(name)
	return args.String(0)
}

func (m *mockStorage) OpenOutput(ctx context.Context, name string) (io.ReadCloser, error) {
	args := m.Called(ctx, name)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) RemoveOutputs(ctx context.Context, names []string) error {
	args := m.Called(ctx, names)
	return args.Error(0)
}

func (m *mockStorage) UploadOutput(ctx context.Context, key string, data io.Reader) (string, error) {
	args := m.Called(ctx, key, data)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoRegions() []region.CropSpec {
	return []region.CropSpec{
		{ID: "region-1", X: 0.05, Y: 0.1, Width: 0.5, Height: 0.8},
		{ID: "region-2", X: 0.45, Y: 0.1, Width: 0.5, Height: 0.8},
	}
}

func TestService_Process(t *testing.T) {
	ctx := context.Background()
	repo := run.NewMemoryRepository()
	prober := &mockProber{}
	cropper := &mockCropper{}
	store := &mockStorage{}
	svc := NewService(repo, prober, cropper, store, testLogger())

	prober.On("Dimensions", mock.Anything, "/videos/interview.mp4").Return(1920, 1080, nil)
	store.On("OutputPath", "segment_1.mp4").Return(filepath.Join("/out", "segment_1.mp4"))
	store.On("OutputPath", "segment_2.mp4").Return(filepath.Join("/out", "segment_2.mp4"))
	cropper.On("Crop", mock.Anything, "/videos/interview.mp4", filepath.Join("/out", "segment_1.mp4"),
		media.CropWindow{X: 96, Y: 108, Width: 960, Height: 864}).Return(nil)
	cropper.On("Crop", mock.Anything, "/videos/interview.mp4", filepath.Join("/out", "segment_2.mp4"),
		media.CropWindow{X: 864, Y: 108, Width: 960, Height: 864}).Return(nil)

	r, err := svc.Process(ctx, Input{SourcePath: "/videos/interview.mp4", Regions: twoRegions()})
	require.NoError(t, err)

	assert.Equal(t, run.StatusCompleted, r.GetStatus())
	assert.Equal(t, 1920, r.VideoWidth)
	assert.Equal(t, 1080, r.VideoHeight)
	require.Len(t, r.Outputs, 2)
	assert.Equal(t, "Speaker 1", r.Outputs[0].Label)
	assert.Equal(t, "Speaker 2", r.Outputs[1].Label)
	assert.Equal(t, "segment_1.mp4", r.Outputs[0].Filename)
	assert.Equal(t, "/outputs/segment_1.mp4", r.Outputs[0].URL)
	assert.Equal(t, "/outputs/segment_2.mp4", r.Outputs[1].URL)

	saved, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, saved.Status)

	prober.AssertExpectations(t)
	cropper.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestService_Process_WithS3Upload(t *testing.T) {
	ctx := context.Background()
	repo := run.NewMemoryRepository()
	prober := &mockProber{}
	cropper := &mockCropper{}
	store := &mockStorage{}
	svc := NewService(repo, prober, cropper, store, testLogger(), WithS3Upload(true))

	prober.On("Dimensions", mock.Anything, mock.Anything).Return(1280, 720, nil)
	store.On("OutputPath", mock.Anything).Return("/out/x.mp4")
	cropper.On("Crop", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("OpenOutput", mock.Anything, "segment_1.mp4").
		Return(io.NopCloser(strings.NewReader("a")), nil)
	store.On("OpenOutput", mock.Anything, "segment_2.mp4").
		Return(io.NopCloser(strings.NewReader("b")), nil)
	store.On("UploadOutput", mock.Anything, "segment_1.mp4", mock.Anything).
		Return("https://bucket.s3.us-east-1.amazonaws.com/segment_1.mp4", nil)
	store.On("UploadOutput", mock.Anything, "segment_2.mp4", mock.Anything).
		Return("https://bucket.s3.us-east-1.amazonaws.com/segment_2.mp4", nil)

	r, err := svc.Process(ctx, Input{SourcePath: "/videos/a.mp4", Regions: twoRegions()})
	require.NoError(t, err)

	require.Len(t, r.Outputs, 2)
	assert.Equal(t, "https://bucket.s3.us-east-1.amazonaws.com/segment_1.mp4", r.Outputs[0].URL)
	store.AssertExpectations(t)
}

func TestService_Process_RequiresTwoRegions(t *testing.T) {
	svc := NewService(run.NewMemoryRepository(), &mockProber{}, &mockCropper{}, &mockStorage{}, testLogger())

	_, err := svc.Process(context.Background(), Input{Regions: twoRegions()[:1]})
	assert.ErrorIs(t, err, ErrTwoRegionsRequired)
}

func TestService_Process_ProbeFailure(t *testing.T) {
	ctx := context.Background()
	repo := run.NewMemoryRepository()
	prober := &mockProber{}
	svc := NewService(repo, prober, &mockCropper{}, &mockStorage{}, testLogger())

	prober.On("Dimensions", mock.Anything, mock.Anything).Return(0, 0, errors.New("ffprobe not found"))

	r, err := svc.Process(ctx, Input{SourcePath: "/videos/a.mp4", Regions: twoRegions()})
	require.Error(t, err)
	require.NotNil(t, r)
	assert.Equal(t, run.StatusFailed, r.GetStatus())
	assert.Contains(t, r.Error, "ffprobe not found")

	saved, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, saved.Status)
}

func TestService_Process_CropFailure(t *testing.T) {
	ctx := context.Background()
	repo := run.NewMemoryRepository()
	prober := &mockProber{}
	cropper := &mockCropper{}
	store := &mockStorage{}
	svc := NewService(repo, prober, cropper, store, testLogger())

	prober.On("Dimensions", mock.Anything, mock.Anything).Return(1920, 1080, nil)
	store.On("OutputPath", mock.Anything).Return("/out/x.mp4")
	cropper.On("Crop", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("ffmpeg exited with status 1"))

	r, err := svc.Process(ctx, Input{SourcePath: "/videos/a.mp4", Regions: twoRegions()})
	require.Error(t, err)
	assert.Equal(t, run.StatusFailed, r.GetStatus())
	assert.Contains(t, r.Error, "ffmpeg exited with status 1")
}

func TestService_GetRun(t *testing.T) {
	ctx := context.Background()
	repo := run.NewMemoryRepository()
	svc := NewService(repo, &mockProber{}, &mockCropper{}, &mockStorage{}, testLogger())
	require.NoError(t, repo.Save(ctx, run.NewWithID("run-1")))

	r, err := svc.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", r.ID)

	_, err = svc.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, run.ErrRunNotFound)
}

func TestPixelWindow(t *testing.T) {
	tests := []struct {
		name   string
		spec   region.CropSpec
		videoW int
		videoH int
		want   media.CropWindow
	}{
		{
			name:   "interior window",
			spec:   region.CropSpec{X: 0.05, Y: 0.1, Width: 0.5, Height: 0.8},
			videoW: 1920,
			videoH: 1080,
			want:   media.CropWindow{X: 96, Y: 108, Width: 960, Height: 864},
		},
		{
			name:   "full frame",
			spec:   region.CropSpec{X: 0, Y: 0, Width: 1, Height: 1},
			videoW: 1280,
			videoH: 720,
			want:   media.CropWindow{X: 0, Y: 0, Width: 1280, Height: 720},
		},
		{
			name:   "rounding keeps window inside the frame",
			spec:   region.CropSpec{X: 0.5729, Y: 0, Width: 0.4271, Height: 1},
			videoW: 1920,
			videoH: 1080,
			want:   media.CropWindow{X: 1100, Y: 0, Width: 820, Height: 1080},
		},
		{
			name:   "origin clamped when size rounds up past the edge",
			spec:   region.CropSpec{X: 0.5, Y: 0.5, Width: 0.5006, Height: 0.5006},
			videoW: 1000,
			videoH: 1000,
			want:   media.CropWindow{X: 499, Y: 499, Width: 501, Height: 501},
		},
		{
			name:   "degenerate size floors at one pixel",
			spec:   region.CropSpec{X: 0.2, Y: 0.2, Width: 0.00001, Height: 0.00001},
			videoW: 1920,
			videoH: 1080,
			want:   media.CropWindow{X: 384, Y: 216, Width: 1, Height: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelWindow(tt.spec, tt.videoW, tt.videoH)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.X+got.Width, tt.videoW)
			assert.LessOrEqual(t, got.Y+got.Height, tt.videoH)
		})
	}
}
