// Package run provides the crop-run aggregate: one record per accepted
// submission, with a small state machine tracking it from acceptance
// through ffmpeg export, plus repository interfaces for persistence.
package run

import (
	"errors"
	"sync"
	"time"

	"github.com/speakersplit/speakersplit/internal/media"
	"github.com/speakersplit/speakersplit/internal/region"
	"github.com/speakersplit/speakersplit/internal/run/id"
)

// Status represents the current state of a crop run.
type Status string

const (
	// StatusPending indicates the run was accepted but not started.
	StatusPending Status = "PENDING"
	// StatusProcessing indicates ffmpeg is exporting the crops.
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted indicates every crop was exported.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the run stopped with an error.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is
// attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Output describes one exported crop of a run.
type Output struct {
	// Label is the display name, e.g. "Speaker 1".
	Label string
	// Filename is the output file name inside the output directory.
	Filename string
	// URL is where the file can be downloaded.
	URL string
	// Crop is the pixel window that was cut from the source.
	Crop media.CropWindow
}

// Run represents one crop submission being processed.
type Run struct {
	mu sync.RWMutex

	// ID is the unique identifier for this run.
	ID string
	// Status is the current run state.
	Status Status
	// SourcePath is the source video the crops were cut from.
	SourcePath string
	// VideoWidth and VideoHeight are the probed source dimensions.
	VideoWidth  int
	VideoHeight int
	// Regions are the submitted ratio-space crop specs, in order.
	Regions []region.CropSpec
	// Outputs are the exported crops, in region order.
	Outputs []Output
	// Error contains any error message if the run failed.
	Error string
	// CreatedAt is when the run was accepted.
	CreatedAt time.Time
	// UpdatedAt is when the run was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a Run with a generated ID and initial PENDING status.
func New() *Run {
	now := time.Now()
	return &Run{
		ID:        id.Generate(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a Run with the specified ID and initial PENDING
// status. Useful for testing.
func NewWithID(runID string) *Run {
	now := time.Now()
	return &Run{
		ID:        runID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the run status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (r *Run) TransitionTo(status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !canTransition(r.Status, status) {
		return ErrInvalidTransition
	}

	r.Status = status
	r.UpdatedAt = time.Now()

	switch status {
	case StatusProcessing:
		r.StartedAt = r.UpdatedAt
	case StatusCompleted, StatusFailed:
		r.CompletedAt = r.UpdatedAt
	}

	return nil
}

// Start transitions the run from PENDING to PROCESSING.
func (r *Run) Start() error {
	return r.TransitionTo(StatusProcessing)
}

// Complete transitions the run to COMPLETED.
func (r *Run) Complete() error {
	return r.TransitionTo(StatusCompleted)
}

// Fail transitions the run to FAILED with an error message.
func (r *Run) Fail(errMsg string) error {
	r.mu.Lock()
	r.Error = errMsg
	r.mu.Unlock()
	return r.TransitionTo(StatusFailed)
}

// GetStatus returns the current run status (thread-safe).
func (r *Run) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// SetSource records the probed source video.
func (r *Run) SetSource(path string, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SourcePath = path
	r.VideoWidth = width
	r.VideoHeight = height
	r.UpdatedAt = time.Now()
}

// SetOutputs records the exported crops.
func (r *Run) SetOutputs(outputs []Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outputs = outputs
	r.UpdatedAt = time.Now()
}

// IsTerminal returns true if the run is in a terminal state.
func (r *Run) IsTerminal() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Clone creates a deep copy of the run for safe reads.
func (r *Run) Clone() *Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regions := make([]region.CropSpec, len(r.Regions))
	copy(regions, r.Regions)
	outputs := make([]Output, len(r.Outputs))
	copy(outputs, r.Outputs)

	return &Run{
		ID:          r.ID,
		Status:      r.Status,
		SourcePath:  r.SourcePath,
		VideoWidth:  r.VideoWidth,
		VideoHeight: r.VideoHeight,
		Regions:     regions,
		Outputs:     outputs,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}
