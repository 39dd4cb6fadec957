package detection

import (
	"context"
	"testing"
)

func TestClusterDetector(t *testing.T) {
	d := NewClusterDetector(DefaultClusterConfig())
	frame := tankFrame(80, 120, 60)

	cand, err := d.Detect(context.Background(), frame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand == nil {
		t.Fatal("expected a candidate, got none")
	}

	if cand.Method != MethodClustering {
		t.Errorf("method: got %s, want %s", cand.Method, MethodClustering)
	}
	if cand.Row < 58 || cand.Row > 62 {
		t.Errorf("row: got %d, want near 60", cand.Row)
	}
	if cand.Confidence <= 0 || cand.Confidence > 1 {
		t.Errorf("confidence %f outside (0,1]", cand.Confidence)
	}
}

func TestClusterDetector_SingleCluster(t *testing.T) {
	d := NewClusterDetector(DefaultClusterConfig())

	cand, err := d.Detect(context.Background(), uniformFrame(80, 120))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Errorf("expected no candidate on a uniform frame, got row %d", cand.Row)
	}
}

func TestClusterDetector_SeparationFloor(t *testing.T) {
	cfg := DefaultClusterConfig()
	cfg.MinSeparation = 2.0 // unreachable in Lab space
	d := NewClusterDetector(cfg)

	cand, err := d.Detect(context.Background(), tankFrame(80, 120, 60))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Errorf("expected no candidate below separation floor, got row %d", cand.Row)
	}
}

func TestClusterDetector_Deterministic(t *testing.T) {
	d := NewClusterDetector(DefaultClusterConfig())
	frame := tankFrame(80, 120, 60)

	first, err := d.Detect(context.Background(), frame)
	if err != nil || first == nil {
		t.Fatalf("first run: cand=%v err=%v", first, err)
	}
	second, err := d.Detect(context.Background(), frame)
	if err != nil || second == nil {
		t.Fatalf("second run: cand=%v err=%v", second, err)
	}
	if first.Row != second.Row || first.Confidence != second.Confidence {
		t.Errorf("runs differ: (%d, %f) vs (%d, %f)", first.Row, first.Confidence, second.Row, second.Confidence)
	}
}

func TestClusterDetector_TinyFrame(t *testing.T) {
	d := NewClusterDetector(DefaultClusterConfig())

	cand, err := d.Detect(context.Background(), uniformFrame(4, 1))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Error("expected no candidate on a single-row frame")
	}
}
