package region

// Region is one of the two crop rectangles a user positions over the
// video. It pairs a stable identity with a ratio-space frame. The frame
// is only ever replaced by engine-produced values, so the aspect-lock
// and containment invariants hold for the lifetime of the region.
type Region struct {
	id    string
	frame Frame
}

// New creates a region at the given default origin with zero size.
// The region stays zero-sized until the engine fits it to the video.
func New(id string, defaultLeft, defaultTop float64) *Region {
	return &Region{
		id: id,
		frame: Frame{
			Left: clamp(defaultLeft, 0, 1),
			Top:  clamp(defaultTop, 0, 1),
		},
	}
}

// ID returns the stable region identity.
func (r *Region) ID() string {
	return r.id
}

// Frame returns the current ratio-space placement.
func (r *Region) Frame() Frame {
	return r.frame
}

// Apply replaces the placement with an engine-produced frame.
func (r *Region) Apply(f Frame) {
	r.frame = f
}

// CropSpec is the serialized form of a region: the submission payload
// entry consumed by the crop boundary. All values stay in ratio space;
// no pixel units leak through.
type CropSpec struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Serialize projects the region onto its submission payload entry.
func (r *Region) Serialize() CropSpec {
	return CropSpec{
		ID:     r.id,
		X:      r.frame.Left,
		Y:      r.frame.Top,
		Width:  r.frame.Width,
		Height: r.frame.Height,
	}
}
