package metrics

import "math"

const (
	weightAffection   = 0.35
	weightReciprocity = 0.20
	weightSpeed       = 0.20
	weightConsistency = 0.15
	weightPositivity  = 0.10
)

// Breakdown 五个归一化后的子分数，均在 [0,1]
type Breakdown struct {
	Affection   float64 `json:"affection"`
	Reciprocity float64 `json:"reciprocity"`
	Speed       float64 `json:"speed"`
	Consistency float64 `json:"consistency"`
	Positivity  float64 `json:"positivity"`
}

func NewBreakdown(r *Result) Breakdown {
	return Breakdown{
		Affection:   Normalize(r.AffectionDensity, 0, 0.08),
		Reciprocity: Normalize(r.Reciprocity, 0.6, 1.0),
		Speed:       NormalizeInverse(r.MedianReplySec, 60, 3600),
		Consistency: Normalize(r.ActiveDayRatio, 0.2, 1.0),
		Positivity:  Normalize(r.PositiveRatio, 0, 0.2),
	}
}

// Score 加权求和后映射到 0-100 的整数
func Score(r *Result) int {
	b := NewBreakdown(r)
	s := (b.Affection*weightAffection +
		b.Reciprocity*weightReciprocity +
		b.Speed*weightSpeed +
		b.Consistency*weightConsistency +
		b.Positivity*weightPositivity) * 100

	return int(math.Max(0, math.Min(100, math.Round(s))))
}

// Normalize 线性归一化到 [0,1]
func Normalize(v, lo, hi float64) float64 {
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

// NormalizeInverse 越小越好：v<=best 得 1，v>=worst 得 0，中间线性插值
func NormalizeInverse(v, best, worst float64) float64 {
	if v <= best {
		return 1
	}
	if v >= worst {
		return 0
	}
	return 1 - (v-best)/(worst-best)
}
