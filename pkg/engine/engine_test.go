package engine

import (
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/dataset"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/noise"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sampleBody = "59,1,9,1,10000,1\n" +
	"31,0,1,3,20000,0\n" +
	"44,1,12,1,20000,1\n" +
	"23,0,12,2,200000,0\n"

func intPtr(v int) *int { return &v }

func newEngine(t *testing.T, body string, opts Options) *Engine {
	t.Helper()
	if opts.Field == "" {
		opts.Field = "educ"
	}
	if opts.Source == nil {
		opts.Source = rand.NewPCG(1, 2)
	}
	e, err := New(dataset.New(body, dataset.DefaultSchema()), opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e
}

func TestNewInitialState(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})

	s := e.Snapshot()
	assert.Equal(t, "educ", s.Field)
	assert.Equal(t, noise.Laplace, s.Mechanism)
	assert.Equal(t, 0, s.AccuracyIndex)
	assert.Equal(t, 1.0, s.Accuracy)
	assert.Equal(t, DefaultAlpha, s.Alpha)
	assert.NoError(t, s.Err)
	assert.False(t, s.Stale)

	require.NotNil(t, s.Release)
	assert.Len(t, s.Release.Counts, 20)
	assert.Len(t, s.Release.Noised, 20)
	assert.Equal(t, uint64(4), s.Release.Counts.Sum())
	assert.Equal(t, uint64(2), s.Release.Counts[11])
	assert.Greater(t, s.Release.Scale, 0.0)
	assert.Equal(t, e.Buckets(), s.Release.Buckets)
}

func TestNewRejectsBadOptions(t *testing.T) {
	ds := dataset.New(sampleBody, dataset.DefaultSchema())

	_, err := New(ds, Options{Field: "zip"}, nil)
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = New(nil, Options{Field: "educ"}, nil)
	assert.Error(t, err)

	_, err = New(ds, Options{Field: "educ", MaxAccuracyIndex: intPtr(-1)}, nil)
	assert.Error(t, err)

	for _, alpha := range []float64{1, 1.5, -0.1, math.NaN()} {
		_, err = New(ds, Options{Field: "educ", Alpha: alpha}, nil)
		assert.Error(t, err, "alpha %g", alpha)
	}

	_, err = New(ds, Options{Field: "educ", AccuracyIndex: 101}, nil)
	assert.Error(t, err)

	_, err = New(ds, Options{Field: "educ", AccuracyIndex: -1}, nil)
	assert.Error(t, err)

	_, err = New(ds, Options{Field: "educ", Mechanism: noise.Mechanism(7)}, nil)
	assert.Error(t, err)

	_, err = New(ds, Options{Field: "educ", AccuracyStep: -2}, nil)
	assert.Error(t, err)
}

func TestRefreshKeepsTrueCounts(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	first := e.Snapshot().Release

	require.NoError(t, e.Refresh())
	second := e.Snapshot().Release

	assert.Equal(t, first.Counts, second.Counts)
	assert.Len(t, second.Noised, len(first.Noised))
}

func TestToggleMechanism(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	laplaceScale := e.Snapshot().Release.Scale

	require.NoError(t, e.ToggleMechanism())
	s := e.Snapshot()
	assert.Equal(t, noise.Gaussian, s.Mechanism)
	assert.Equal(t, noise.Gaussian, s.Release.Mechanism)
	assert.NotEqual(t, laplaceScale, s.Release.Scale, "scale is recalibrated per mechanism")

	require.NoError(t, e.ToggleMechanism())
	assert.Equal(t, noise.Laplace, e.Mechanism())
}

func TestAccuracyRoundTrip(t *testing.T) {
	e := newEngine(t, sampleBody, Options{MaxAccuracyIndex: intPtr(10)})

	require.NoError(t, e.IncreaseAccuracy())
	require.NoError(t, e.IncreaseAccuracy())
	assert.Equal(t, 2, e.AccuracyIndex())
	assert.Equal(t, 3.0, e.Accuracy())

	require.NoError(t, e.IncreaseAccuracy())
	require.NoError(t, e.DecreaseAccuracy())
	assert.Equal(t, 2, e.AccuracyIndex())

	require.NoError(t, e.DecreaseAccuracy())
	require.NoError(t, e.IncreaseAccuracy())
	assert.Equal(t, 2, e.AccuracyIndex())
}

func TestAccuracyWrapAround(t *testing.T) {
	e := newEngine(t, sampleBody, Options{MaxAccuracyIndex: intPtr(3)})

	require.NoError(t, e.DecreaseAccuracy())
	assert.Equal(t, 3, e.AccuracyIndex(), "below zero wraps to the maximum")

	require.NoError(t, e.IncreaseAccuracy())
	assert.Equal(t, 0, e.AccuracyIndex(), "past the maximum wraps to zero")
	assert.Equal(t, 3, e.MaxAccuracyIndex())
}

func TestAccuracyChangeRecalibrates(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	before := e.Snapshot().Release

	require.NoError(t, e.IncreaseAccuracy())
	after := e.Snapshot().Release

	assert.Equal(t, 1, after.AccuracyIndex)
	assert.Greater(t, after.Scale, before.Scale)
}

func TestSwitchFieldToIncome(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	require.NoError(t, e.IncreaseAccuracy())
	require.NoError(t, e.IncreaseAccuracy())
	assert.Len(t, e.Buckets(), 20)

	require.NoError(t, e.SwitchField("income"))

	s := e.Snapshot()
	assert.Equal(t, "income", s.Field)
	assert.Equal(t, 0, s.AccuracyIndex)

	want := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		want = append(want, strconv.Itoa(i*10000))
	}
	assert.Equal(t, want, e.Buckets())
	assert.Equal(t, want, s.Release.Buckets)
	assert.Equal(t, uint64(1), s.Release.Counts[0])
	assert.Equal(t, uint64(2), s.Release.Counts[1])
	assert.Equal(t, uint64(1), s.Release.Counts[19])
}

func TestSwitchFieldUnknownLeavesState(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	require.NoError(t, e.IncreaseAccuracy())

	err := e.SwitchField("zip")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, "educ", e.Field())
	assert.Equal(t, 1, e.AccuracyIndex())
}

func TestFailedInitialRefreshIsFlagged(t *testing.T) {
	body := sampleBody + "broken,row\n"
	e, err := New(dataset.New(body, dataset.DefaultSchema()), Options{Field: "educ"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	s := e.Snapshot()
	assert.Nil(t, s.Release, "no pair has ever been computed")
	assert.True(t, s.Stale)

	var re *RefreshError
	require.True(t, errors.As(s.Err, &re))
	assert.Equal(t, StageAggregate, re.Stage)

	var de *dataset.DataError
	assert.True(t, errors.As(s.Err, &de))
}

func TestCalibrationFailureIsReported(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})

	e.mu.Lock()
	e.alpha = 1.5
	e.mu.Unlock()

	require.Error(t, e.Refresh())
	s := e.Snapshot()
	require.Error(t, s.Err)
	var re *RefreshError
	require.True(t, errors.As(s.Err, &re))
	assert.Equal(t, StageCalibrate, re.Stage)

	var ce *noise.CalibrationError
	assert.True(t, errors.As(s.Err, &ce))

	assert.Error(t, e.ToggleMechanism())
	assert.Equal(t, noise.Gaussian, e.Mechanism(), "the parameter still changes")
}

func TestZeroMaxAccuracyIndex(t *testing.T) {
	e := newEngine(t, sampleBody, Options{MaxAccuracyIndex: intPtr(0)})
	assert.Equal(t, 0, e.MaxAccuracyIndex())

	require.NoError(t, e.IncreaseAccuracy())
	assert.Equal(t, 0, e.AccuracyIndex())
	require.NoError(t, e.DecreaseAccuracy())
	assert.Equal(t, 0, e.AccuracyIndex())
}

func TestDefaultMaxAccuracyIndex(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	assert.Equal(t, DefaultMaxAccuracyIndex, e.MaxAccuracyIndex())
}

func TestStartingParameters(t *testing.T) {
	e := newEngine(t, sampleBody, Options{Mechanism: noise.Gaussian, AccuracyIndex: 42})

	s := e.Snapshot()
	require.NoError(t, s.Err)
	assert.Equal(t, noise.Gaussian, s.Mechanism)
	assert.Equal(t, 42, s.AccuracyIndex)
	assert.Equal(t, 43.0, s.Accuracy)
	require.NotNil(t, s.Release)
	assert.Equal(t, noise.Gaussian, s.Release.Mechanism)
	assert.Equal(t, 42, s.Release.AccuracyIndex)
}

func TestFailedRefreshKeepsLastGoodPair(t *testing.T) {
	ds := dataset.New(sampleBody, dataset.DefaultSchema())
	e, err := New(ds, Options{Field: "educ", Source: rand.NewPCG(3, 4)}, nil)
	require.NoError(t, err)
	good := e.Snapshot().Release

	// Force a calibration failure on the next transition.
	e.mu.Lock()
	e.alpha = 0
	e.mu.Unlock()

	require.Error(t, e.IncreaseAccuracy())
	s := e.Snapshot()
	assert.True(t, s.Stale)
	assert.Equal(t, good.Counts, s.Release.Counts)
	assert.Equal(t, 0, s.Release.AccuracyIndex, "release still describes the last good parameters")
	assert.Equal(t, 1, s.AccuracyIndex)

	e.mu.Lock()
	e.alpha = 0.05
	e.mu.Unlock()

	require.NoError(t, e.Refresh())
	s = e.Snapshot()
	assert.False(t, s.Stale)
	assert.Equal(t, 1, s.Release.AccuracyIndex)
}

func TestSnapshotIsACopy(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	s := e.Snapshot()
	s.Release.Counts[0] = 1000
	s.Release.Noised[0] = 1000

	again := e.Snapshot()
	assert.NotEqual(t, uint64(1000), again.Release.Counts[0])
}

func TestConcurrentTransitionsKeepPairsConsistent(t *testing.T) {
	e := newEngine(t, sampleBody, Options{Source: rand.NewPCG(5, 6)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch (i + j) % 4 {
				case 0:
					_ = e.ToggleMechanism()
				case 1:
					_ = e.IncreaseAccuracy()
				case 2:
					_ = e.DecreaseAccuracy()
				default:
					if j%2 == 0 {
						_ = e.SwitchField("income")
					} else {
						_ = e.SwitchField("educ")
					}
				}
				s := e.Snapshot()
				if s.Release != nil {
					assert.Equal(t, len(s.Release.Buckets), len(s.Release.Counts))
					assert.Equal(t, len(s.Release.Counts), len(s.Release.Noised))
				}
			}
		}(i)
	}
	wg.Wait()

	s := e.Snapshot()
	assert.Equal(t, s.Field, s.Release.Field)
	assert.Equal(t, s.Mechanism, s.Release.Mechanism)
	assert.Equal(t, s.AccuracyIndex, s.Release.AccuracyIndex)
}

func TestFields(t *testing.T) {
	e := newEngine(t, sampleBody, Options{})
	assert.Equal(t, dataset.DefaultSchema().Columns(), e.Fields())
}
