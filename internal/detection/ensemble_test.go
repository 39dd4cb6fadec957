package detection

import (
	"errors"
	"math"
	"testing"
)

func TestCombine_NoCandidates(t *testing.T) {
	_, err := Combine(nil, 1000, DefaultEnsembleConfig())
	if !errors.Is(err, ErrNoCandidate) {
		t.Errorf("got %v, want ErrNoCandidate", err)
	}
}

func TestCombine_SingleCandidateVerbatim(t *testing.T) {
	cand := Candidate{Row: 300, Confidence: 0.7, Method: MethodEdge}

	est, err := Combine([]Candidate{cand}, 1000, DefaultEnsembleConfig())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	if est.Row != 300 {
		t.Errorf("row: got %d, want 300", est.Row)
	}
	if est.Confidence != 0.7 {
		t.Errorf("confidence: got %f, want 0.7", est.Confidence)
	}
	if est.Agreement != 1.0 {
		t.Errorf("agreement: got %f, want 1.0", est.Agreement)
	}
	if est.Method != MethodEdge {
		t.Errorf("method: got %s, want %s", est.Method, MethodEdge)
	}
}

func TestCombine_OutlierSuppression(t *testing.T) {
	cands := []Candidate{
		{Row: 100, Confidence: 0.8, Method: MethodHough},
		{Row: 105, Confidence: 0.8, Method: MethodClustering},
		{Row: 900, Confidence: 0.8, Method: MethodEdge},
	}

	est, err := Combine(cands, 1000, DefaultEnsembleConfig())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	if math.Abs(float64(est.Row)-102.5) > 0.5 {
		t.Errorf("row: got %d, want near 102.5", est.Row)
	}
	if len(est.Contributing) != 2 {
		t.Fatalf("survivors: got %d, want 2", len(est.Contributing))
	}
	if est.Agreement < 0.99 {
		t.Errorf("agreement: got %f, want close to 1.0", est.Agreement)
	}
	if est.Method != MethodEnsemble {
		t.Errorf("method: got %s, want %s", est.Method, MethodEnsemble)
	}
}

func TestCombine_OrderInsensitive(t *testing.T) {
	base := []Candidate{
		{Row: 200, Confidence: 0.9, Method: MethodHough},
		{Row: 210, Confidence: 0.5, Method: MethodClustering},
		{Row: 205, Confidence: 0.7, Method: MethodEdge},
	}
	permutations := [][]Candidate{
		{base[0], base[1], base[2]},
		{base[2], base[0], base[1]},
		{base[1], base[2], base[0]},
		{base[2], base[1], base[0]},
	}

	first, err := Combine(permutations[0], 600, DefaultEnsembleConfig())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	for i, perm := range permutations[1:] {
		est, err := Combine(perm, 600, DefaultEnsembleConfig())
		if err != nil {
			t.Fatalf("permutation %d failed: %v", i+1, err)
		}
		if est.Row != first.Row || est.Confidence != first.Confidence || est.Agreement != first.Agreement {
			t.Errorf("permutation %d differs: (%d, %f, %f) vs (%d, %f, %f)",
				i+1, est.Row, est.Confidence, est.Agreement, first.Row, first.Confidence, first.Agreement)
		}
		for j, c := range est.Contributing {
			if c.Method != first.Contributing[j].Method {
				t.Errorf("permutation %d: contributing order differs at %d", i+1, j)
			}
		}
	}
}

func TestCombine_ConfidenceDampedByDisagreement(t *testing.T) {
	agreeing := []Candidate{
		{Row: 300, Confidence: 0.9, Method: MethodHough},
		{Row: 302, Confidence: 0.9, Method: MethodEdge},
	}
	disagreeing := []Candidate{
		{Row: 250, Confidence: 0.9, Method: MethodHough},
		{Row: 350, Confidence: 0.9, Method: MethodEdge},
	}

	high, err := Combine(agreeing, 600, DefaultEnsembleConfig())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	low, err := Combine(disagreeing, 600, DefaultEnsembleConfig())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	if low.Confidence >= high.Confidence {
		t.Errorf("disagreeing pair confidence %f not lower than agreeing pair %f", low.Confidence, high.Confidence)
	}
	if low.Agreement >= high.Agreement {
		t.Errorf("disagreeing pair agreement %f not lower than agreeing pair %f", low.Agreement, high.Agreement)
	}
}

func TestCombine_WeightedMean(t *testing.T) {
	cands := []Candidate{
		{Row: 100, Confidence: 0.9, Method: MethodHough},
		{Row: 200, Confidence: 0.1, Method: MethodEdge},
	}

	est, err := Combine(cands, 1000, DefaultEnsembleConfig())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	// (100*0.9 + 200*0.1) / 1.0 = 110
	if est.Row != 110 {
		t.Errorf("row: got %d, want 110", est.Row)
	}
}

func TestCombine_ZeroConfidenceFallsBackToPlainMean(t *testing.T) {
	cands := []Candidate{
		{Row: 100, Confidence: 0, Method: MethodHough},
		{Row: 200, Confidence: 0, Method: MethodEdge},
	}

	est, err := Combine(cands, 1000, DefaultEnsembleConfig())
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if est.Row != 150 {
		t.Errorf("row: got %d, want 150", est.Row)
	}
}

func TestCombine_AllOutliersKeepsMostConfident(t *testing.T) {
	// Spread so wide that every candidate exceeds the outlier distance.
	cands := []Candidate{
		{Row: 100, Confidence: 0.5, Method: MethodHough},
		{Row: 900, Confidence: 0.9, Method: MethodEdge},
	}
	cfg := EnsembleConfig{OutlierFrac: 0.01}

	est, err := Combine(cands, 1000, cfg)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if est.Row != 900 {
		t.Errorf("row: got %d, want 900", est.Row)
	}
	if est.Method != MethodEdge {
		t.Errorf("method: got %s, want %s", est.Method, MethodEdge)
	}
}
