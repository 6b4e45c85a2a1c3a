package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseResult() *Result {
	return &Result{
		AffectionDensity: 0.02,
		Reciprocity:      0.8,
		MedianReplySec:   600,
		ActiveDayRatio:   1.0,
		PositiveRatio:    0.05,
	}
}

func TestScore_Known(t *testing.T) {
	r := &Result{
		AffectionDensity: 0.02, // 0.25 * 35
		Reciprocity:      1.0,  // 20
		MedianReplySec:   60,   // 20
		ActiveDayRatio:   1.0,  // 15
		PositiveRatio:    0.2,  // 10
	}
	assert.Equal(t, 74, Score(r))
}

func TestScore_Extremes(t *testing.T) {
	best := &Result{AffectionDensity: 5, Reciprocity: 1, MedianReplySec: 1, ActiveDayRatio: 1, PositiveRatio: 1}
	assert.Equal(t, 100, Score(best))

	worst := &Result{MedianReplySec: 7200}
	assert.Equal(t, 0, Score(worst))
}

func TestScore_Monotonic(t *testing.T) {
	steps := []float64{0, 0.01, 0.03, 0.05, 0.08, 0.1, 0.3, 0.6, 0.7, 0.9, 1.0}

	t.Run("affection density", func(t *testing.T) {
		prev := -1
		for _, v := range steps {
			r := baseResult()
			r.AffectionDensity = v
			s := Score(r)
			assert.GreaterOrEqual(t, s, prev)
			prev = s
		}
	})

	t.Run("reciprocity", func(t *testing.T) {
		prev := -1
		for _, v := range steps {
			r := baseResult()
			r.Reciprocity = v
			s := Score(r)
			assert.GreaterOrEqual(t, s, prev)
			prev = s
		}
	})

	t.Run("positive ratio", func(t *testing.T) {
		prev := -1
		for _, v := range steps {
			r := baseResult()
			r.PositiveRatio = v
			s := Score(r)
			assert.GreaterOrEqual(t, s, prev)
			prev = s
		}
	})

	t.Run("median reply", func(t *testing.T) {
		prev := 101
		for _, v := range []float64{0, 30, 60, 120, 600, 1800, 3599, 3600, 86400} {
			r := baseResult()
			r.MedianReplySec = v
			s := Score(r)
			assert.LessOrEqual(t, s, prev)
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 100)
			prev = s
		}
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(-1, 0, 1))
	assert.Equal(t, 1.0, Normalize(2, 0, 1))
	assert.InDelta(t, 0.5, Normalize(0.04, 0, 0.08), 1e-9)
	assert.Equal(t, 0.0, Normalize(0.5, 0.6, 1.0))
}

func TestNormalizeInverse(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeInverse(10, 60, 3600))
	assert.Equal(t, 1.0, NormalizeInverse(60, 60, 3600))
	assert.Equal(t, 0.0, NormalizeInverse(3600, 60, 3600))
	assert.InDelta(t, 0.5, NormalizeInverse(1830, 60, 3600), 1e-9)
}

func TestNewBreakdown(t *testing.T) {
	b := NewBreakdown(&Result{AffectionDensity: 0.08, Reciprocity: 0.6, MedianReplySec: 3600, ActiveDayRatio: 1, PositiveRatio: 0.1})
	assert.InDelta(t, 1.0, b.Affection, 1e-9)
	assert.InDelta(t, 0.0, b.Reciprocity, 1e-9)
	assert.InDelta(t, 0.0, b.Speed, 1e-9)
	assert.InDelta(t, 1.0, b.Consistency, 1e-9)
	assert.InDelta(t, 0.5, b.Positivity, 1e-9)
}
