package region

import "testing"

func TestNewRegion(t *testing.T) {
	r := New("region-1", 0.05, 0.10)

	if r.ID() != "region-1" {
		t.Errorf("expected id region-1, got %s", r.ID())
	}
	f := r.Frame()
	if f.Left != 0.05 || f.Top != 0.10 {
		t.Errorf("expected origin (0.05, 0.10), got (%.2f, %.2f)", f.Left, f.Top)
	}
	if f.Width != 0 || f.Height != 0 {
		t.Error("expected zero size until first fitted")
	}
}

func TestNewRegion_ClampsDefaults(t *testing.T) {
	r := New("r", -0.5, 1.5)

	f := r.Frame()
	if f.Left != 0 || f.Top != 1 {
		t.Errorf("expected clamped origin (0, 1), got (%.2f, %.2f)", f.Left, f.Top)
	}
}

func TestRegion_Apply(t *testing.T) {
	r := New("r", 0, 0)
	want := Frame{Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.4}

	r.Apply(want)

	if r.Frame() != want {
		t.Errorf("expected frame %+v, got %+v", want, r.Frame())
	}
}

func TestRegion_Serialize(t *testing.T) {
	r := New("region-2", 0, 0)
	r.Apply(Frame{Left: 0.25, Top: 0.5, Width: 0.4, Height: 0.3})

	got := r.Serialize()

	want := CropSpec{ID: "region-2", X: 0.25, Y: 0.5, Width: 0.4, Height: 0.3}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
