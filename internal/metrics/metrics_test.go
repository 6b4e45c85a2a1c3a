package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liao/love-lens/internal/parser"
)

var t0 = time.Date(2023, time.August, 12, 10, 0, 0, 0, time.UTC)

func msg(offset time.Duration, sender, text string) parser.Message {
	return parser.Message{Timestamp: t0.Add(offset), Sender: sender, Text: text}
}

func TestCompute_Empty(t *testing.T) {
	r := Compute(nil)

	assert.Empty(t, r.Principals)
	assert.Empty(t, r.PerPerson)
	assert.Zero(t, r.AffectionDensity)
	assert.Zero(t, r.MedianReplySec)
	assert.Zero(t, r.Reciprocity)
	assert.Zero(t, r.ActiveDayRatio)
	assert.Zero(t, r.PositiveRatio)
	assert.Zero(t, r.ChatSpanDays)

	// 只剩速度子分数（中位数为 0 视为最快）
	assert.Equal(t, 20, Score(r))
}

func TestCompute_ActiveDayRatio(t *testing.T) {
	assert.Zero(t, Compute(nil).ActiveDayRatio)

	single := Compute([]parser.Message{{Timestamp: t0, Sender: "Alice", Text: "hi"}})
	assert.Equal(t, 1.0, single.ActiveDayRatio)

	spread := Compute([]parser.Message{
		{Timestamp: t0, Sender: "Alice", Text: "hi"},
		{Timestamp: t0.Add(30 * 24 * time.Hour), Sender: "Bob", Text: "hey"},
	})
	assert.Equal(t, 1.0, spread.ActiveDayRatio)
}

func TestCompute_NoHeadersTranscript(t *testing.T) {
	r := Compute(parser.Parse("hello\nthis is not an export\n"))
	assert.Empty(t, r.Filtered)
	assert.Equal(t, 20, Score(r))
}

func TestCompute_ParsedExample(t *testing.T) {
	msgs := parser.Parse("12/08/23, 10:15 pm - Alice: I love you ❤️\n12/08/23, 10:16 pm - Bob: miss you too")
	r := Compute(msgs)

	assert.Equal(t, []string{"Alice", "Bob"}, r.Principals)
	assert.Greater(t, r.AffectionDensity, 0.0)
	assert.InDelta(t, 2.0, r.AffectionDensity, 1e-9)
	assert.Equal(t, PersonStats{Count: 1, Affection: 3, Emojis: 1}, r.PerPerson["Alice"])
	assert.Equal(t, PersonStats{Count: 1, Affection: 1, Emojis: 0}, r.PerPerson["Bob"])
	assert.InDelta(t, 60.0, r.MedianReplySec, 1e-9)
	assert.Equal(t, 1.0, r.Reciprocity)
	assert.Equal(t, 1, r.ChatSpanDays)
}

func TestCompute_StrictAlternation(t *testing.T) {
	msgs := []parser.Message{
		msg(0, "Alice", "hi"),
		msg(time.Minute, "Bob", "hey"),
		msg(2*time.Minute, "Alice", "how are you"),
		msg(3*time.Minute, "Bob", "good"),
	}
	r := Compute(msgs)

	assert.Equal(t, 1.0, r.Reciprocity)
	assert.Equal(t, 3, r.Alternations)
	assert.Equal(t, 0, r.MonologueRuns)
	assert.Equal(t, 3, r.ReplySamples)
	assert.InDelta(t, 60.0, r.MedianReplySec, 1e-9)
}

func TestCompute_Monologue(t *testing.T) {
	const n = 4
	var msgs []parser.Message
	for i := 0; i < n; i++ {
		msgs = append(msgs, msg(time.Duration(i)*time.Minute, "Alice", "are you there?"))
	}
	msgs = append(msgs, msg(10*time.Minute, "Bob", "sorry, was driving"))

	r := Compute(msgs)
	assert.Equal(t, n-1, r.MonologueRuns)
	assert.Equal(t, 1, r.Alternations)
	assert.Less(t, r.Reciprocity, 1.0)
	assert.InDelta(t, 0.25, r.Reciprocity, 1e-9)
	assert.InDelta(t, 420.0, r.MedianReplySec, 1e-9)
}

func TestCompute_LongGapsExcludedFromLatency(t *testing.T) {
	msgs := []parser.Message{
		msg(0, "Alice", "night"),
		msg(25*time.Hour, "Bob", "sorry, just saw this"),
		msg(25*time.Hour+2*time.Minute, "Alice", "no worries"),
		// 时钟异常：时间倒退
		msg(25*time.Hour+time.Minute, "Bob", "ok"),
	}
	r := Compute(msgs)

	assert.Equal(t, 3, r.Alternations)
	assert.Equal(t, 1, r.ReplySamples)
	assert.InDelta(t, 120.0, r.MedianReplySec, 1e-9)
	assert.Equal(t, 2, r.ChatSpanDays)
}

func TestCompute_PrincipalSelection(t *testing.T) {
	msgs := []parser.Message{
		msg(0, parser.SystemSender, "Alice added Carol"),
		msg(time.Minute, "Carol", "hello all"),
		msg(2*time.Minute, "Alice", "hi"),
		msg(3*time.Minute, "Bob", "hi"),
		msg(4*time.Minute, "Alice", "thanks for coming"),
		msg(5*time.Minute, "Dave", "yo"),
		msg(6*time.Minute, "Bob", "sure"),
		msg(7*time.Minute, parser.SystemSender, "Dave left"),
		msg(8*time.Minute, parser.SystemSender, "Carol left"),
	}
	r := Compute(msgs)

	require.Equal(t, []string{"Alice", "Bob"}, r.Principals)
	require.Len(t, r.Filtered, 4)
	for _, m := range r.Filtered {
		assert.Contains(t, r.Principals, m.Sender)
	}
	assert.Len(t, r.PerPerson, 2)
	assert.InDelta(t, 0.25, r.PositiveRatio, 1e-9)
}

func TestCompute_TieBrokenByFirstAppearance(t *testing.T) {
	msgs := []parser.Message{
		msg(0, "Carol", "a"),
		msg(time.Minute, "Bob", "b"),
		msg(2*time.Minute, "Alice", "c"),
		msg(3*time.Minute, "Alice", "d"),
	}
	r := Compute(msgs)
	assert.Equal(t, []string{"Alice", "Carol"}, r.Principals)
}

func TestCompute_SingleSender(t *testing.T) {
	msgs := []parser.Message{
		msg(0, "Alice", "note to self"),
		msg(time.Minute, "Alice", "another note"),
	}
	r := Compute(msgs)

	assert.Equal(t, []string{"Alice"}, r.Principals)
	assert.Zero(t, r.Reciprocity)
	assert.Zero(t, r.MedianReplySec)
	assert.Equal(t, 1, r.MonologueRuns)
}

func TestCompute_RatiosBounded(t *testing.T) {
	msgs := []parser.Message{
		msg(0, "Alice", "love you babe, thank you ❤️😘"),
		msg(30*time.Second, "Bob", "love you more, great day"),
		msg(24*time.Hour, "Bob", "good morning"),
		msg(48*time.Hour, "Alice", "happy"),
	}
	r := Compute(msgs)

	for _, v := range []float64{r.Reciprocity, r.PositiveRatio, r.ActiveDayRatio} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, 1.0, r.PositiveRatio)
	assert.Equal(t, 3, r.ChatSpanDays)
	assert.Equal(t, t0, r.FirstMessage)
	assert.Equal(t, t0.Add(48*time.Hour), r.LastMessage)
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{name: "empty", values: nil, p: 50, want: 0},
		{name: "odd", values: []float64{5, 1, 3, 2, 4}, p: 50, want: 3},
		{name: "even uses floor index", values: []float64{4, 1, 3, 2}, p: 50, want: 3},
		{name: "p100 clamps", values: []float64{1, 2, 3}, p: 100, want: 3},
		{name: "p0", values: []float64{9, 7, 8}, p: 0, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentile(tt.values, tt.p))
		})
	}
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 50)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 45 * time.Second, want: "45s"},
		{d: 59600 * time.Millisecond, want: "1m"},
		{d: 90 * time.Second, want: "2m"},
		{d: 2 * time.Hour, want: "2h"},
		{d: 72 * time.Hour, want: "3d"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanizeDuration(tt.d))
		})
	}
}
