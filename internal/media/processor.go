// Package media provides video probing and cropping through the ffmpeg
// CLI tools.
package media

import "context"

// CropWindow is a pixel-space crop rectangle inside the video frame.
type CropWindow struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Prober reads metadata from a video file.
type Prober interface {
	// Dimensions returns the natural pixel width and height of the
	// first video stream.
	Dimensions(ctx context.Context, path string) (width, height int, err error)
}

// Cropper cuts a pixel window out of a video file.
type Cropper interface {
	// Crop reads src, crops it to the given window, and writes the
	// result to dst. The audio stream is carried over untouched.
	Crop(ctx context.Context, src, dst string, window CropWindow) error
}
