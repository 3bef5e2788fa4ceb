package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub creates a fake executable that runs the given shell script.
func writeStub(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub executables require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0700)) // #nosec G306
	return path
}

func TestFFmpegCropper_Crop_InvalidWindow(t *testing.T) {
	cropper := NewFFmpegCropper("ffmpeg-not-called")

	tests := []struct {
		name   string
		window CropWindow
	}{
		{"zero width", CropWindow{X: 0, Y: 0, Width: 0, Height: 100}},
		{"zero height", CropWindow{X: 0, Y: 0, Width: 100, Height: 0}},
		{"negative x", CropWindow{X: -1, Y: 0, Width: 100, Height: 100}},
		{"negative y", CropWindow{X: 0, Y: -1, Width: 100, Height: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cropper.Crop(context.Background(), "in.mp4", "out.mp4", tt.window)
			assert.ErrorIs(t, err, ErrInvalidCropWindow)
		})
	}
}

func TestFFmpegCropper_Crop(t *testing.T) {
	stub := writeStub(t, "ffmpeg", `echo "$@" > "$(dirname "$0")/args.txt"`)
	cropper := NewFFmpegCropper(stub)

	err := cropper.Crop(context.Background(), "in.mp4", "out.mp4",
		CropWindow{X: 96, Y: 108, Width: 960, Height: 864})
	require.NoError(t, err)

	args, err := os.ReadFile(filepath.Join(filepath.Dir(stub), "args.txt"))
	require.NoError(t, err)
	got := string(args)
	assert.Contains(t, got, "-i in.mp4")
	assert.Contains(t, got, "crop=960:864:96:108")
	assert.Contains(t, got, "-c:v libx264")
	assert.Contains(t, got, "-preset fast")
	assert.Contains(t, got, "-crf 18")
	assert.Contains(t, got, "-c:a copy")
	assert.Contains(t, got, "out.mp4")
}

func TestFFmpegCropper_Crop_Failure(t *testing.T) {
	stub := writeStub(t, "ffmpeg", `echo "in.mp4: No such file or directory" >&2; exit 1`)
	cropper := NewFFmpegCropper(stub)

	err := cropper.Crop(context.Background(), "in.mp4", "out.mp4",
		CropWindow{X: 0, Y: 0, Width: 100, Height: 100})
	require.Error(t, err)

	var ffmpegErr *FFmpegError
	require.ErrorAs(t, err, &ffmpegErr)
	assert.Contains(t, ffmpegErr.Stderr, "No such file or directory")
	assert.NotEmpty(t, ffmpegErr.Args)
}

func TestFFmpegCropper_Crop_Cancelled(t *testing.T) {
	stub := writeStub(t, "ffmpeg", `sleep 10`)
	cropper := NewFFmpegCropper(stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cropper.Crop(ctx, "in.mp4", "out.mp4",
		CropWindow{X: 0, Y: 0, Width: 100, Height: 100})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFFmpegError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &FFmpegError{
		Args:   []string{"-i", "in.mp4"},
		Stderr: "something broke",
		Err:    cause,
	}

	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, err.Error(), "something broke")
	assert.ErrorIs(t, err, cause)
}
