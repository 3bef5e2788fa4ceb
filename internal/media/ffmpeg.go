package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Static errors for media operations.
var (
	// ErrInvalidCropWindow is returned when a crop window has a
	// non-positive size or a negative origin.
	ErrInvalidCropWindow = errors.New("media: invalid crop window")
)

// Encoding settings for exported crops. The source audio stream is
// copied, not re-encoded.
const (
	videoCodec   = "libx264"
	encodePreset = "fast"
	encodeCRF    = "18"
)

// FFmpegCropper implements Cropper using the ffmpeg CLI.
type FFmpegCropper struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegCropper creates a new FFmpegCropper.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegCropper(ffmpegPath string) *FFmpegCropper {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegCropper{ffmpegPath: ffmpegPath}
}

// Crop cuts the given pixel window out of src and writes it to dst,
// re-encoding the video with libx264 and copying the audio stream.
func (p *FFmpegCropper) Crop(ctx context.Context, src, dst string, window CropWindow) error {
	if window.Width <= 0 || window.Height <= 0 || window.X < 0 || window.Y < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidCropWindow, window)
	}

	filter := fmt.Sprintf("crop=%d:%d:%d:%d", window.Width, window.Height, window.X, window.Y)

	args := []string{
		"-y",      // Overwrite output file without asking
		"-i", src, // Input file
		"-vf", filter, // Crop filter
		"-c:v", videoCodec,
		"-preset", encodePreset,
		"-crf", encodeCRF,
		"-c:a", "copy", // Keep the original audio stream
		dst,
	}

	return p.runFFmpeg(ctx, args)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an
// error containing stderr output if the command fails.
func (p *FFmpegCropper) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the
// stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
