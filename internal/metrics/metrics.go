// Package metrics 计算两位主要发送者之间的关系与语言指标，并据此打分。
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/liao/love-lens/internal/lexicon"
	"github.com/liao/love-lens/internal/parser"
)

// maxReplyGap 超过 24 小时的间隔不算回复（补发历史、时钟异常等）
const maxReplyGap = 24 * time.Hour

// activeDayRatio 固定为 1.0：只统计有消息的日期，所以活跃比例恒为 100%。
// 没有按"有消息天数 / 总跨度天数"计算，保留原有口径。
// 唯一的例外是过滤后没有消息：此时为 0，保证空输入的各比例全为 0（得分 20 而不是 35）。
const activeDayRatio = 1.0

// PersonStats 单个主要发送者的统计
type PersonStats struct {
	Count     int `json:"count"`
	Affection int `json:"affection"`
	Emojis    int `json:"emojis"`
}

// Result 一次完整计算的结果，只读，每次新的聊天记录都重新计算
type Result struct {
	Principals       []string               `json:"principals"`
	AffectionDensity float64                `json:"affection_density"`
	MedianReplySec   float64                `json:"median_reply_sec"`
	Reciprocity      float64                `json:"reciprocity"`
	ActiveDayRatio   float64                `json:"active_day_ratio"`
	PositiveRatio    float64                `json:"positive_ratio"`
	PerPerson        map[string]PersonStats `json:"per_person"`
	ChatSpanDays     int                    `json:"chat_span_days"`

	Alternations  int       `json:"alternations"`
	MonologueRuns int       `json:"monologue_runs"`
	ReplySamples  int       `json:"reply_samples"`
	FirstMessage  time.Time `json:"first_message"`
	LastMessage   time.Time `json:"last_message"`

	// Filtered 只包含两位主要发送者的消息，顺序不变
	Filtered []parser.Message `json:"-"`
}

// Compute 计算全部指标。空输入或只有一个发送者时各比例为 0，不会报错。
func Compute(msgs []parser.Message) *Result {
	principals := topSenders(msgs, 2)
	filtered := filterBySender(msgs, principals)

	r := &Result{
		Principals: principals,
		PerPerson:  make(map[string]PersonStats, len(principals)),
		Filtered:   filtered,
	}
	for _, p := range principals {
		r.PerPerson[p] = PersonStats{}
	}
	if len(filtered) == 0 {
		return r
	}

	r.ActiveDayRatio = activeDayRatio
	r.FirstMessage = filtered[0].Timestamp
	r.LastMessage = filtered[len(filtered)-1].Timestamp

	var (
		affectionHits int
		positive      int
		replyMs       []float64
		days          = make(map[string]struct{})
	)

	for i, m := range filtered {
		hits := lexicon.CountMatches(m.Text, lexicon.Affection)
		affectionHits += hits
		if lexicon.ContainsAny(m.Text, lexicon.Positive) {
			positive++
		}

		stats := r.PerPerson[m.Sender]
		stats.Count++
		stats.Affection += hits
		stats.Emojis += lexicon.CountEmoji(m.Text)
		r.PerPerson[m.Sender] = stats

		days[m.Timestamp.UTC().Format("2006-01-02")] = struct{}{}

		if i == 0 {
			continue
		}
		prev := filtered[i-1]
		if prev.Sender == m.Sender {
			r.MonologueRuns++
			continue
		}
		r.Alternations++
		if dt := m.Timestamp.Sub(prev.Timestamp); dt > 0 && dt < maxReplyGap {
			replyMs = append(replyMs, float64(dt.Milliseconds()))
		}
	}

	n := float64(len(filtered))
	r.AffectionDensity = float64(affectionHits) / n
	r.PositiveRatio = float64(positive) / n
	r.Reciprocity = float64(r.Alternations) / float64(max(1, r.Alternations+r.MonologueRuns))
	r.ReplySamples = len(replyMs)
	if len(replyMs) > 0 {
		r.MedianReplySec = Percentile(replyMs, 50) / 1000
	}
	r.ChatSpanDays = len(days)

	return r
}

// topSenders 按消息数降序取前 n 位，数量相同按首次出现顺序，忽略系统消息
func topSenders(msgs []parser.Message, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, m := range msgs {
		if m.IsSystem() {
			continue
		}
		if _, ok := counts[m.Sender]; !ok {
			order = append(order, m.Sender)
		}
		counts[m.Sender]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func filterBySender(msgs []parser.Message, senders []string) []parser.Message {
	keep := make(map[string]bool, len(senders))
	for _, s := range senders {
		keep[s] = true
	}

	var filtered []parser.Message
	for _, m := range msgs {
		if keep[m.Sender] {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Percentile 取第 p 百分位，下标 floor(p/100*N) 并限制在合法范围内
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	idx := int(math.Floor(p / 100 * float64(len(sorted))))
	idx = min(len(sorted)-1, max(0, idx))
	return sorted[idx]
}

// HumanizeDuration 转成 "45s" / "3m" / "2h" / "4d"
func HumanizeDuration(d time.Duration) string {
	s := roundHalfUp(float64(d.Milliseconds()) / 1000)
	if s < 60 {
		return fmt.Sprintf("%ds", int64(s))
	}
	m := roundHalfUp(s / 60)
	if m < 60 {
		return fmt.Sprintf("%dm", int64(m))
	}
	h := roundHalfUp(m / 60)
	if h < 24 {
		return fmt.Sprintf("%dh", int64(h))
	}
	return fmt.Sprintf("%dd", int64(roundHalfUp(h/24)))
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
