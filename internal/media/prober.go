package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
)

// Static errors for probing operations.
var (
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("media: ffprobe execution failed")
	// ErrNoVideoStream is returned when the file carries no video stream.
	ErrNoVideoStream = errors.New("media: no video stream found")
	// ErrInvalidDimensions is returned when ffprobe reports a
	// non-positive width or height.
	ErrInvalidDimensions = errors.New("media: invalid video dimensions")
)

// ffprobeStreams mirrors the JSON ffprobe emits for -show_streams.
type ffprobeStreams struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

// FFprobeProber implements Prober using the ffprobe CLI.
type FFprobeProber struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFprobeProber creates a new FFprobeProber.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeProber(ffprobePath string) *FFprobeProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFprobeProber{ffprobePath: ffprobePath}
}

// Dimensions returns the natural pixel width and height of the first
// video stream of the file at path.
func (p *FFprobeProber) Dimensions(ctx context.Context, path string) (int, int, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var probed ffprobeStreams
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return 0, 0, fmt.Errorf("media: parse ffprobe output: %w", err)
	}

	if len(probed.Streams) == 0 {
		return 0, 0, ErrNoVideoStream
	}

	width := probed.Streams[0].Width
	height := probed.Streams[0].Height
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	return width, height, nil
}
