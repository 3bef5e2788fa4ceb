package run

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakersplit/speakersplit/internal/media"
	"github.com/speakersplit/speakersplit/internal/region"
)

func TestNew(t *testing.T) {
	r := New()

	assert.True(t, strings.HasPrefix(r.ID, "run-"))
	assert.Equal(t, StatusPending, r.Status)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
}

func TestRun_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, false},
		{"pending to failed", StatusPending, StatusFailed, false},
		{"pending to completed", StatusPending, StatusCompleted, true},
		{"processing to completed", StatusProcessing, StatusCompleted, false},
		{"processing to failed", StatusProcessing, StatusFailed, false},
		{"processing to pending", StatusProcessing, StatusPending, true},
		{"completed is terminal", StatusCompleted, StatusProcessing, true},
		{"failed is terminal", StatusFailed, StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewWithID("run-test")
			r.Status = tt.from

			err := r.TransitionTo(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, r.GetStatus())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.to, r.GetStatus())
			}
		})
	}
}

func TestRun_Lifecycle(t *testing.T) {
	r := New()

	require.NoError(t, r.Start())
	assert.False(t, r.StartedAt.IsZero())
	assert.False(t, r.IsTerminal())

	require.NoError(t, r.Complete())
	assert.False(t, r.CompletedAt.IsZero())
	assert.True(t, r.IsTerminal())
}

func TestRun_Fail(t *testing.T) {
	r := New()
	require.NoError(t, r.Start())

	require.NoError(t, r.Fail("ffmpeg exited with status 1"))

	assert.Equal(t, StatusFailed, r.GetStatus())
	assert.Equal(t, "ffmpeg exited with status 1", r.Error)
	assert.True(t, r.IsTerminal())
}

func TestRun_SetSource(t *testing.T) {
	r := New()

	r.SetSource("/data/raw/interview.mp4", 1920, 1080)

	assert.Equal(t, "/data/raw/interview.mp4", r.SourcePath)
	assert.Equal(t, 1920, r.VideoWidth)
	assert.Equal(t, 1080, r.VideoHeight)
}

func TestRun_Clone(t *testing.T) {
	r := New()
	r.Regions = []region.CropSpec{{ID: "region-1", X: 0.1, Y: 0.1, Width: 0.5, Height: 0.8}}
	r.SetOutputs([]Output{{
		Label:    "Speaker 1",
		Filename: "segment_1.mp4",
		URL:      "/outputs/segment_1.mp4",
		Crop:     media.CropWindow{X: 192, Y: 108, Width: 960, Height: 864},
	}})

	clone := r.Clone()
	clone.Regions[0].ID = "mutated"
	clone.Outputs[0].Label = "mutated"

	assert.Equal(t, "region-1", r.Regions[0].ID)
	assert.Equal(t, "Speaker 1", r.Outputs[0].Label)
}
