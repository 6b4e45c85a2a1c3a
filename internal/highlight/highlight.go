// Package highlight 本地启发式挑选聊天精彩片段，作为 AI 提取的兜底。
package highlight

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/liao/love-lens/internal/lexicon"
	"github.com/liao/love-lens/internal/parser"
)

// DefaultLimit 默认最多返回的片段数
const DefaultLimit = 15

const (
	dateLayout = "1/2/2006"
	timeLayout = "03:04 PM"
)

// Highlight 选中消息的只读投影
type Highlight struct {
	Sender      string `json:"sender"`
	Text        string `json:"text"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// FromMessage 按展示格式生成 Highlight
func FromMessage(m parser.Message) Highlight {
	return Highlight{
		Sender: m.Sender,
		Text:   m.Text,
		Date:   FormatDate(m.Timestamp),
		Time:   FormatTime(m.Timestamp),
	}
}

func FormatDate(t time.Time) string { return t.Format(dateLayout) }

func FormatTime(t time.Time) string { return t.Format(timeLayout) }

// Salience 消息的显著性得分
//
// 长度项 min(2, 长度/120) 按 rune 计，不按 UTF-16 码元计；emoji 较多的消息因此
// 长度项略低。
func Salience(m parser.Message) float64 {
	s := 3 * float64(lexicon.CountMatches(m.Text, lexicon.Affection))
	s += 2 * float64(lexicon.CountMatches(m.Text, lexicon.Commitment))
	s += 1 * float64(lexicon.CountMatches(m.Text, lexicon.Gratitude))
	s += 1.5 * float64(lexicon.CountMatches(m.Text, lexicon.Apology))
	s += math.Min(2, float64(lexicon.CountEmoji(m.Text))/3)
	s += math.Min(2, float64(utf8.RuneCountInString(m.Text))/120)
	return s
}

type candidate struct {
	idx   int
	score float64
}

// Select 按显著性取前 limit 条，再按原始顺序排列
func Select(filtered []parser.Message, limit int) []Highlight {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := make([]candidate, len(filtered))
	for i, m := range filtered {
		candidates[i] = candidate{idx: i, score: Salience(m)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].idx < candidates[j].idx
	})

	out := make([]Highlight, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, FromMessage(filtered[c.idx]))
	}
	return out
}
