package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tanklens/tanklens/internal/imaging"
)

// ErrNoCandidate indicates that no detector produced a usable estimate.
var ErrNoCandidate = errors.New("no candidate found")

// Method identifies a detection method.
type Method string

const (
	MethodHough      Method = "hough"
	MethodClustering Method = "clustering"
	MethodEdge       Method = "edge"
	MethodEnsemble   Method = "ensemble"
)

// ParseMethod validates a method selector string.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodHough, MethodClustering, MethodEdge, MethodEnsemble:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown detection method %q", s)
}

// methodRank fixes the canonical ordering of candidates, so ensemble fusion is
// independent of the order detectors finish in.
func methodRank(m Method) int {
	switch m {
	case MethodHough:
		return 0
	case MethodClustering:
		return 1
	case MethodEdge:
		return 2
	}
	return 3
}

// Candidate is a single detector's estimate of the liquid surface row.
type Candidate struct {
	Row        int            `json:"row"`
	Confidence float64        `json:"confidence"`
	Method     Method         `json:"method"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Detector locates the liquid surface in a frame.
//
// A nil Candidate with a nil error means the detector found nothing usable in
// this frame; callers must tolerate it.
type Detector interface {
	Method() Method
	Detect(ctx context.Context, frame *imaging.Frame) (*Candidate, error)
}

// Registry holds the available detectors keyed by method.
type Registry struct {
	detectors map[Method]Detector
}

// NewRegistry builds a registry from the given detectors.
func NewRegistry(detectors ...Detector) *Registry {
	r := &Registry{detectors: make(map[Method]Detector, len(detectors))}
	for _, d := range detectors {
		r.detectors[d.Method()] = d
	}
	return r
}

// Get returns the detector for a single-method selector.
func (r *Registry) Get(m Method) (Detector, bool) {
	d, ok := r.detectors[m]
	return d, ok
}

// All returns every registered detector in canonical method order.
func (r *Registry) All() []Detector {
	all := make([]Detector, 0, len(r.detectors))
	for _, d := range r.detectors {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		return methodRank(all[i].Method()) < methodRank(all[j].Method())
	})
	return all
}
