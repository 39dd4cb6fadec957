package detection

import (
	"context"
	"testing"
)

func TestHoughDetector(t *testing.T) {
	d := NewHoughDetector(DefaultHoughConfig())
	frame := tankFrame(80, 120, 60)

	cand, err := d.Detect(context.Background(), frame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand == nil {
		t.Fatal("expected a candidate, got none")
	}

	if cand.Method != MethodHough {
		t.Errorf("method: got %s, want %s", cand.Method, MethodHough)
	}
	if cand.Row < 56 || cand.Row > 62 {
		t.Errorf("row: got %d, want near 60", cand.Row)
	}
	if cand.Confidence <= 0 || cand.Confidence > 1 {
		t.Errorf("confidence %f outside (0,1]", cand.Confidence)
	}
}

func TestHoughDetector_NoLine(t *testing.T) {
	d := NewHoughDetector(DefaultHoughConfig())

	cand, err := d.Detect(context.Background(), uniformFrame(80, 120))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Errorf("expected no candidate on a uniform frame, got row %d", cand.Row)
	}
}

func TestHoughDetector_VoteFloor(t *testing.T) {
	// A floor above the frame width can never be met.
	cfg := DefaultHoughConfig()
	cfg.MinVoteFrac = 2.0
	d := NewHoughDetector(cfg)

	cand, err := d.Detect(context.Background(), tankFrame(80, 120, 60))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if cand != nil {
		t.Errorf("expected no candidate below the vote floor, got row %d", cand.Row)
	}
}

func TestHoughDetector_Cancelled(t *testing.T) {
	d := NewHoughDetector(DefaultHoughConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Detect(ctx, tankFrame(80, 120, 60)); err == nil {
		t.Error("expected context error after cancellation")
	}
}

func TestHoughDetector_Deterministic(t *testing.T) {
	d := NewHoughDetector(DefaultHoughConfig())
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
