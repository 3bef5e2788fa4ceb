// Package selection bridges pointer events to the geometry engine. It
// owns the two-region session, the single interaction slot, and the
// fire-and-forget submission of the final payload.
package selection

import (
	"github.com/speakersplit/speakersplit/internal/region"
	"github.com/speakersplit/speakersplit/internal/submit"
)

// Region identities and default origins. Exactly two regions exist for
// the lifetime of a session; they are only ever repositioned.
const (
	RegionLeftID  = "region-1"
	RegionRightID = "region-2"
)

// Session holds the two crop regions together with the current video
// metrics and the shared resize floor. It is mutated only from the
// event handlers of a single goroutine.
type Session struct {
	engine   *region.Engine
	regions  [2]*region.Region
	metrics  region.Metrics
	minWidth float64
}

// NewSession creates a session with both regions at their default
// origins and zero size. The regions stay zero-sized until metrics
// arrive and the engine fits them to the video.
func NewSession(engine *region.Engine) *Session {
	return &Session{
		engine: engine,
		regions: [2]*region.Region{
			region.New(RegionLeftID, 0.05, 0.10),
			region.New(RegionRightID, 0.55, 0.10),
		},
		minWidth: engine.MinWidthRatio(0),
	}
}

// Engine returns the geometry engine the session was built with.
func (s *Session) Engine() *region.Engine {
	return s.engine
}

// Metrics returns the current video metrics (zero while unknown).
func (s *Session) Metrics() region.Metrics {
	return s.metrics
}

// MinWidthRatio returns the resize floor shared by both regions.
func (s *Session) MinWidthRatio() float64 {
	return s.minWidth
}

// Regions returns both regions in submission order.
func (s *Session) Regions() [2]*region.Region {
	return s.regions
}

// Region looks a region up by id, or nil.
func (s *Session) Region(id string) *region.Region {
	for _, r := range s.regions {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

// SetMetrics records new video metrics and resets both regions to the
// fitted target box, keeping each region's origin but clamping it back
// into the frame. Unknown metrics are ignored. Calling this again with
// unchanged metrics converges to the same state, so it does not matter
// whether metadata was delivered by event or queried synchronously.
func (s *Session) SetMetrics(m region.Metrics) {
	if !m.Known() {
		return
	}
	s.metrics = m

	w, h, ok := s.engine.FitToVideo(m)
	if !ok {
		return
	}
	s.minWidth = s.engine.MinWidthRatio(w)

	for _, r := range s.regions {
		f := r.Frame()
		f.Width = w
		f.Height = h
		// Re-clamp the origin; a fit can grow the frame past an origin
		// that was valid for the previous metrics.
		r.Apply(s.engine.Move(f, 0, 0))
	}
}

// Payload serializes both regions into the submission payload, in
// stable order.
func (s *Session) Payload() submit.Payload {
	return submit.Payload{
		Regions: []region.CropSpec{
			s.regions[0].Serialize(),
			s.regions[1].Serialize(),
		},
	}
}
