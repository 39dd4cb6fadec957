// Package pipeline sequences one detection request end to end: preprocessing,
// detector execution, ensemble fusion, and calibration, producing the final
// result record.
//
// Each request is processed independently with no state shared across
// requests. The lifecycle is linear: Received, Preprocessed, Detected,
// Combined, Calibrated (optional), Completed, or Failed at any stage. When the
// ensemble method is selected the detectors fan out onto their own goroutines
// under a per-request timeout and the orchestrator joins their completions; a
// timed-out detector is cancelled and the request proceeds with whichever
// candidates completed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tanklens/tanklens/internal/calibration"
	"github.com/tanklens/tanklens/internal/detection"
	"github.com/tanklens/tanklens/internal/imaging"
)

// ErrTimeout indicates the request deadline expired before any detector
// produced a candidate.
var ErrTimeout = errors.New("detection timed out")

// extrapolationPenalty damps confidence when the detected row fell outside the
// calibrated range.
const extrapolationPenalty = 0.9

// Config tunes the orchestrator.
type Config struct {
	// Timeout bounds total per-request processing. Zero means no bound.
	Timeout time.Duration

	// DefaultMethod is used when a request carries no method selector.
	DefaultMethod detection.Method

	// Ensemble configures the combiner.
	Ensemble detection.EnsembleConfig
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		DefaultMethod: detection.MethodEnsemble,
		Ensemble:      detection.DefaultEnsembleConfig(),
	}
}

// Request is one detection request as handed over by the transport layer.
type Request struct {
	Image         []byte
	Method        detection.Method
	CalibrationID string
	Preprocess    bool
}

// Orchestrator wires the preprocessor, the detector registry, the calibration
// store, and the result sink. It holds no per-request state and is safe for
// concurrent use.
type Orchestrator struct {
	pre      *imaging.Preprocessor
	registry *detection.Registry
	store    calibration.Store
	sink     Sink
	clock    Clock
	cfg      Config
	log      *logrus.Logger
}

// New creates an orchestrator. sink may be nil when results are not retained;
// clock may be nil to use the real clock.
func New(pre *imaging.Preprocessor, registry *detection.Registry, store calibration.Store, sink Sink, clock Clock, cfg Config, log *logrus.Logger) *Orchestrator {
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		pre:      pre,
		registry: registry,
		store:    store,
		sink:     sink,
		clock:    clock,
		cfg:      cfg,
		log:      log,
	}
}

// Run processes one request and returns its result record.
//
// Fatal conditions (undecodable image, unknown calibration, malformed
// calibration, no candidate from any detector, timeout with zero candidates)
// return an error and no result. Non-fatal conditions are appended to the
// result's erreurs with confidence reduced accordingly.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	method := req.Method
	if method == "" {
		method = o.cfg.DefaultMethod
	}
	if _, err := detection.ParseMethod(string(method)); err != nil {
		return nil, err
	}

	// Snapshot the calibration at request start; a concurrent update to the
	// store must not affect this request.
	var cal *calibration.Calibration
	if req.CalibrationID != "" {
		var err error
		cal, err = o.store.Get(req.CalibrationID)
		if err != nil {
			return nil, err
		}
		if err := cal.Validate(); err != nil {
			return nil, err
		}
	}

	frame, err := o.pre.Process(req.Image, req.Preprocess)
	if err != nil {
		return nil, err
	}

	start := o.clock.Now()
	var warnings []Warning

	dctx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	var estimate *detection.Estimate
	if method == detection.MethodEnsemble {
		estimate, warnings, err = o.runEnsemble(dctx, frame, warnings)
	} else {
		estimate, err = o.runSingle(dctx, frame, method)
	}
	if err != nil {
		return nil, err
	}

	confidence := estimate.Confidence

	if cal == nil {
		// Uncalibrated tank: fall back to the default curve derived from the
		// frame height. No capacity means no volume.
		cal = calibration.Default(frame.Height(), 0)
	}
	conv, err := cal.Convert(estimate.Row)
	if err != nil {
		return nil, err
	}
	if conv.Extrapolated {
		warnings = append(warnings, Warning{
			Kind:    WarnCalibrationExtrapolated,
			Message: fmt.Sprintf("row %d outside calibrated range, clamped to %.1f%%", estimate.Row, conv.Percentage),
		})
		confidence *= extrapolationPenalty
	}

	duration := o.clock.Since(start)

	contributing := make(map[string]int, len(estimate.Contributing))
	for _, c := range estimate.Contributing {
		contributing[string(c.Method)] = c.Row
	}

	result := &Result{
		NiveauY:           estimate.Row,
		NiveauPercentage:  conv.Percentage,
		NiveauML:          conv.VolumeML,
		Confiance:         confidence,
		MethodeUtilisee:   string(estimate.Method),
		TempsTraitementMS: float64(duration) / float64(time.Millisecond),
		ImageWidth:        frame.Width(),
		ImageHeight:       frame.Height(),
		CalibrationUsed:   cal.ID,
		Timestamp:         o.clock.Now().UTC(),
		Erreurs:           warnings,
		Metadata: map[string]any{
			"preprocessing": frame.Steps(),
			"methods":       contributing,
			"agreement":     estimate.Agreement,
		},
	}

	if o.sink != nil {
		if err := o.sink.Store(result); err != nil {
			o.log.WithError(err).Warn("failed to store detection result")
		}
	}

	o.log.WithFields(logrus.Fields{
		"method":      result.MethodeUtilisee,
		"niveau_y":    result.NiveauY,
		"percentage":  result.NiveauPercentage,
		"confidence":  result.Confiance,
		"duration_ms": result.TempsTraitementMS,
		"warnings":    len(result.Erreurs),
	}).Info("detection completed")

	return result, nil
}

// runSingle executes one detector and bypasses the combiner: the result is
// that detector's candidate verbatim.
func (o *Orchestrator) runSingle(ctx context.Context, frame *imaging.Frame, method detection.Method) (*detection.Estimate, error) {
	det, ok := o.registry.Get(method)
	if !ok {
		return nil, fmt.Errorf("no detector registered for method %q", method)
	}

	cand, err := det.Detect(ctx, frame)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	if cand == nil {
		return nil, detection.ErrNoCandidate
	}

	return &detection.Estimate{
		Row:          cand.Row,
		Confidence:   cand.Confidence,
		Agreement:    1.0,
		Method:       cand.Method,
		Contributing: []detection.Candidate{*cand},
	}, nil
}

// runEnsemble fans out every registered detector onto its own goroutine, joins
// their completions under the request deadline, and fuses whatever candidates
// arrived. Each detector writes only its own slot on the results channel; the
// combiner orders candidates canonically, so the fusion is independent of
// scheduling order.
func (o *Orchestrator) runEnsemble(ctx context.Context, frame *imaging.Frame, warnings []Warning) (*detection.Estimate, []Warning, error) {
	detectors := o.registry.All()

	type outcome struct {
		cand *detection.Candidate
		err  error
	}
	results := make(chan outcome, len(detectors))
	for _, det := range detectors {
		det := det
		go func() {
			cand, err := det.Detect(ctx, frame)
			results <- outcome{cand: cand, err: err}
		}()
	}

	candidates := make([]detection.Candidate, 0, len(detectors))
	joined := 0    // outcomes received, of any kind
	completed := 0 // detectors that ran to completion before the deadline
	timedOut := false

join:
	for joined < len(detectors) {
		select {
		case out := <-results:
			joined++
			switch {
			case out.err != nil && errors.Is(out.err, context.Canceled):
				// Cancelled detector, nothing usable.
			case out.err != nil && errors.Is(out.err, context.DeadlineExceeded):
				timedOut = true
			case out.err != nil:
				completed++
				o.log.WithError(out.err).Warn("detector failed")
			default:
				completed++
				if out.cand != nil {
					candidates = append(candidates, *out.cand)
				}
			}
		case <-ctx.Done():
			timedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
			break join
		}
	}

	if len(candidates) == 0 {
		if timedOut {
			return nil, warnings, ErrTimeout
		}
		return nil, warnings, detection.ErrNoCandidate
	}

	estimate, err := detection.Combine(candidates, frame.Height(), o.cfg.Ensemble)
	if err != nil {
		return nil, warnings, err
	}

	if timedOut || completed < len(detectors) {
		// Partial join: damp confidence by the share of detectors that made it.
		share := float64(completed) / float64(len(detectors))
		estimate.Confidence *= share
		warnings = append(warnings, Warning{
			Kind:    WarnTimeout,
			Message: fmt.Sprintf("%d of %d detectors completed before the deadline", completed, len(detectors)),
		})
	}

	return estimate, warnings, nil
}
