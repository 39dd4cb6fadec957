package detection

import (
	"context"
	"testing"
)

func TestEdgeDetector(t *testing.T) {
	d := NewEdgeDetector(DefaultEdgeConfig())
	frame := tankFrame(80, 120, 60)

	cand, err := d.Detect(context.Background(), frame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand == nil {
		t.Fatal("expected a candidate, got none")
	}

	if cand.Method != MethodEdge {
		t.Errorf("method: got %s, want %s", cand.Method, MethodEdge)
	}
	if cand.Row < 58 || cand.Row > 62 {
		t.Errorf("row: got %d, want near 60", cand.Row)
	}
	if cand.Confidence <= 0 || cand.Confidence > 1 {
		t.Errorf("confidence %f outside (0,1]", cand.Confidence)
	}
}

func TestEdgeDetector_FlatProfile(t *testing.T) {
	d := NewEdgeDetector(DefaultEdgeConfig())

	cand, err := d.Detect(context.Background(), uniformFrame(80, 120))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Errorf("expected no candidate on a flat profile, got row %d", cand.Row)
	}
}

func TestEdgeDetector_SearchBand(t *testing.T) {
	// The only discontinuity sits above the band, so nothing qualifies.
	cfg := DefaultEdgeConfig()
	cfg.BandTop = 0.5
	cfg.BandBottom = 0.95
	d := NewEdgeDetector(cfg)

	cand, err := d.Detect(context.Background(), tankFrame(80, 120, 10))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Errorf("expected no candidate outside the search band, got row %d", cand.Row)
	}
}

func TestEdgeDetector_DegenerateBand(t *testing.T) {
	cfg := DefaultEdgeConfig()
	cfg.BandTop = 0.5
	cfg.BandBottom = 0.5
	d := NewEdgeDetector(cfg)

	cand, err := d.Detect(context.Background(), tankFrame(80, 120, 60))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Error("expected no candidate for an empty search band")
	}
}
