// Package library discovers source videos on disk. The service works
// on a single source: the first video file in the configured directory,
// by sorted name.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSourceVideo is returned when the video directory holds no file
// with a recognized video extension.
var ErrNoSourceVideo = errors.New("library: no source video available")

// videoExtensions lists the recognized source file extensions.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
}

// mimeTypes maps extensions to the MIME type served to the player.
var mimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
}

// IsVideo reports whether the file name carries a recognized video
// extension.
func IsVideo(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// MIMEType returns the MIME type for a video file name, defaulting to
// video/mp4 for unknown extensions.
func MIMEType(name string) string {
	if m, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return m
	}
	return "video/mp4"
}

// FirstVideo returns the path of the first video file in dir, by sorted
// name. Returns ErrNoSourceVideo when none exists.
func FirstVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("library: read video directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsVideo(entry.Name()) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", ErrNoSourceVideo
}
