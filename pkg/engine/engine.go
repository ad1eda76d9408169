// Package engine keeps the live (true, noised) count pair for one field and
// recomputes it whenever a noise parameter changes.
package engine

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/aggregator"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/dataset"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/noise"
)

const (
	DefaultMaxAccuracyIndex = 100
	DefaultAccuracyStep     = 1.0
	DefaultAlpha            = 0.05
)

// ErrUnknownField is returned when a field has no bucket enumeration in the
// dataset schema.
var ErrUnknownField = errors.New("unknown field")

// Refresh stages, reported in RefreshError.
const (
	StageAggregate = "aggregate"
	StageCalibrate = "calibrate"
	StageSample    = "sample"
)

// RefreshError reports which stage of a refresh failed.
type RefreshError struct {
	Stage string
	Err   error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh failed at %s: %v", e.Stage, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Options configure a new Engine.
type Options struct {
	Field string
	// Alpha must lie in (0, 1); zero selects DefaultAlpha.
	Alpha float64
	// Mechanism and AccuracyIndex are the starting parameters.
	Mechanism     noise.Mechanism
	AccuracyIndex int
	// MaxAccuracyIndex bounds the index; nil selects DefaultMaxAccuracyIndex.
	MaxAccuracyIndex *int
	AccuracyStep     float64
	// Source feeds the noise samplers. Nil uses the global source.
	Source rand.Source
}

func (o *Options) setDefaults() {
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.MaxAccuracyIndex == nil {
		n := DefaultMaxAccuracyIndex
		o.MaxAccuracyIndex = &n
	}
	if o.AccuracyStep == 0 {
		o.AccuracyStep = DefaultAccuracyStep
	}
}

// Release is one computed (true, noised) pair together with the parameters
// that produced it.
type Release struct {
	Field         string
	Mechanism     noise.Mechanism
	AccuracyIndex int
	Accuracy      float64
	Alpha         float64
	Scale         float64
	Buckets       []string
	Counts        aggregator.CountVector
	Noised        []int64
}

// Snapshot is a consistent read of the engine state.
type Snapshot struct {
	Field         string
	Mechanism     noise.Mechanism
	AccuracyIndex int
	Accuracy      float64
	Alpha         float64
	// Release is the last successful pair, nil if none has succeeded yet.
	Release *Release
	// Err is set when the latest refresh failed; Release then predates the
	// current parameters.
	Err   error
	Stale bool
}

// Engine combines aggregation, calibration and noising for one dataset.
// Transitions are serialized; readers always see a matching pair.
type Engine struct {
	ds       *dataset.Dataset
	logger   *zap.Logger
	src      rand.Source
	step     float64
	maxIndex int

	mu      sync.RWMutex
	field   string
	mech    noise.Mechanism
	index   int
	alpha   float64
	release *Release
	err     error
}

// New builds an engine over ds and runs the initial refresh. A failing
// initial refresh does not fail construction; it is visible in Snapshot.
func New(ds *dataset.Dataset, opts Options, logger *zap.Logger) (*Engine, error) {
	if ds == nil {
		return nil, errors.New("engine: nil dataset")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.setDefaults()
	if !ds.Schema().Has(opts.Field) {
		return nil, fmt.Errorf("engine: field %q: %w", opts.Field, ErrUnknownField)
	}
	if math.IsNaN(opts.Alpha) || opts.Alpha <= 0 || opts.Alpha >= 1 {
		return nil, fmt.Errorf("engine: alpha must be in (0, 1), got %g", opts.Alpha)
	}
	if !opts.Mechanism.Valid() {
		return nil, fmt.Errorf("engine: unknown mechanism %v", opts.Mechanism)
	}
	maxIndex := *opts.MaxAccuracyIndex
	if maxIndex < 0 {
		return nil, fmt.Errorf("engine: max accuracy index must not be negative, got %d", maxIndex)
	}
	if opts.AccuracyIndex < 0 || opts.AccuracyIndex > maxIndex {
		return nil, fmt.Errorf("engine: accuracy index must be in [0, %d], got %d", maxIndex, opts.AccuracyIndex)
	}
	if math.IsNaN(opts.AccuracyStep) || math.IsInf(opts.AccuracyStep, 0) || opts.AccuracyStep < 0 {
		return nil, fmt.Errorf("engine: accuracy step must be positive, got %g", opts.AccuracyStep)
	}

	e := &Engine{
		ds:       ds,
		logger:   logger,
		src:      opts.Source,
		step:     opts.AccuracyStep,
		maxIndex: maxIndex,
		field:    opts.Field,
		mech:     opts.Mechanism,
		index:    opts.AccuracyIndex,
		alpha:    opts.Alpha,
	}
	if err := e.Refresh(); err != nil {
		logger.Warn("initial refresh failed", zap.Error(err))
	}
	return e, nil
}

// Refresh recomputes both vectors for the current parameters.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshLocked()
}

// ToggleMechanism flips Laplace and Gaussian, then refreshes.
func (e *Engine) ToggleMechanism() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mech = e.mech.Toggle()
	return e.refreshLocked()
}

// IncreaseAccuracy advances the accuracy index, wrapping to 0 past the
// maximum, then refreshes.
func (e *Engine) IncreaseAccuracy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index++
	if e.index > e.maxIndex {
		e.index = 0
	}
	return e.refreshLocked()
}

// DecreaseAccuracy retreats the accuracy index, wrapping to the maximum
// below 0, then refreshes.
func (e *Engine) DecreaseAccuracy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index--
	if e.index < 0 {
		e.index = e.maxIndex
	}
	return e.refreshLocked()
}

// SwitchField changes the aggregated field and resets the accuracy index.
// An unknown field leaves the state untouched.
func (e *Engine) SwitchField(field string) error {
	if !e.ds.Schema().Has(field) {
		return fmt.Errorf("switch to %q: %w", field, ErrUnknownField)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.field = field
	e.index = 0
	return e.refreshLocked()
}

// Snapshot returns a copy of the current state and the cached pair.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Field:         e.field,
		Mechanism:     e.mech,
		AccuracyIndex: e.index,
		Accuracy:      e.accuracyAt(e.index),
		Alpha:         e.alpha,
		Release:       e.release.clone(),
		Err:           e.err,
		Stale:         e.err != nil,
	}
}

func (e *Engine) Field() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.field
}

func (e *Engine) Mechanism() noise.Mechanism {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mech
}

func (e *Engine) AccuracyIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

func (e *Engine) Alpha() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.alpha
}

// Accuracy is the target accuracy of the current index.
func (e *Engine) Accuracy() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accuracyAt(e.index)
}

// MaxAccuracyIndex is the largest index before wrap-around.
func (e *Engine) MaxAccuracyIndex() int { return e.maxIndex }

// Buckets returns the labels of the active field.
func (e *Engine) Buckets() []string {
	return e.ds.BucketsFor(e.Field())
}

// Fields lists the fields the engine can switch to.
func (e *Engine) Fields() []string {
	return e.ds.Columns()
}

// accuracyAt maps an index to a target accuracy. Index 0 is the tightest
// non-zero target.
func (e *Engine) accuracyAt(index int) float64 {
	return float64(index+1) * e.step
}

func (e *Engine) refreshLocked() error {
	accuracy := e.accuracyAt(e.index)
	log := e.logger.With(
		zap.String("field", e.field),
		zap.Stringer("mechanism", e.mech),
		zap.Int("accuracy_index", e.index),
		zap.Float64("accuracy", accuracy),
		zap.Float64("alpha", e.alpha),
	)

	rel, err := e.compute(accuracy)
	if err != nil {
		e.err = err
		log.Warn("refresh failed, keeping previous release", zap.Error(err))
		return err
	}

	e.release = rel
	e.err = nil
	log.Debug("refreshed", zap.Float64("scale", rel.Scale), zap.Uint64("total", rel.Counts.Sum()))
	return nil
}

func (e *Engine) compute(accuracy float64) (*Release, error) {
	counts, err := aggregator.Aggregate(e.ds, e.field)
	if err != nil {
		return nil, &RefreshError{Stage: StageAggregate, Err: err}
	}
	scale, err := noise.Calibrate(e.mech, accuracy, e.alpha)
	if err != nil {
		return nil, &RefreshError{Stage: StageCalibrate, Err: err}
	}
	noised, err := noise.Apply(counts, e.mech, scale, e.src)
	if err != nil {
		return nil, &RefreshError{Stage: StageSample, Err: err}
	}

	return &Release{
		Field:         e.field,
		Mechanism:     e.mech,
		AccuracyIndex: e.index,
		Accuracy:      accuracy,
		Alpha:         e.alpha,
		Scale:         scale,
		Buckets:       e.ds.BucketsFor(e.field),
		Counts:        counts,
		Noised:        noised,
	}, nil
}

func (r *Release) clone() *Release {
	if r == nil {
		return nil
	}
	c := *r
	c.Buckets = append([]string(nil), r.Buckets...)
	c.Counts = append(aggregator.CountVector(nil), r.Counts...)
	c.Noised = append([]int64(nil), r.Noised...)
	return &c
}
