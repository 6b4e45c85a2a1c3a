package ai

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/liao/love-lens/internal/highlight"
	"github.com/liao/love-lens/internal/parser"
)

const (
	maxHighlightText   = 150
	defaultDate        = "Special moment"
	defaultExplanation = "💕 Sweet memory"
)

var (
	// **Alice** - *12 Aug 2023*
	headerLineRe  = regexp.MustCompile(`^\*\*.*?\*\*.*?-.*?\*`)
	headerPartsRe = regexp.MustCompile(`^\*\*(.*?)\*\*\s*-\s*\*(.*?)\*`)
)

var explanationPrefixes = []string{"💕", "❤", "🥰", "😊", "🤝", "✨", "😂", "💖", "🌟", "🎉"}

// ParseHighlights 尽力从模型的自由文本中解析高光片段
//
// 模型并不保证遵守格式，解析不到任何记录时返回空切片，由调用方回退到本地高光。
func ParseHighlights(reply string) []highlight.Highlight {
	reply = stripCodeFence(reply)

	var records []highlight.Highlight
	var cur highlight.Highlight

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if headerLineRe.MatchString(line) {
			if cur.Sender != "" {
				records = append(records, cur)
			}
			cur = highlight.Highlight{}
			if m := headerPartsRe.FindStringSubmatch(line); m != nil {
				cur.Sender = strings.TrimSpace(m[1])
				cur.Date = strings.TrimSpace(m[2])
			}
			continue
		}

		switch {
		case isQuoted(line):
			_, first := utf8.DecodeRuneInString(line)
			_, last := utf8.DecodeLastRuneInString(line)
			cur.Text = strings.TrimSpace(line[first : len(line)-last])
		case hasExplanationPrefix(line):
			cur.Explanation = line
		case utf8.RuneCountInString(line) > 10 && cur.Text == "":
			cur.Text = strings.TrimSpace(trimOneQuote(line))
		}
	}
	if cur.Sender != "" {
		records = append(records, cur)
	}

	out := make([]highlight.Highlight, 0, len(records))
	for _, h := range records {
		if h.Sender == "" || h.Text == "" {
			continue
		}
		h.Text = parser.TruncateRunes(h.Text, maxHighlightText)
		if h.Date == "" {
			h.Date = defaultDate
		}
		if h.Explanation == "" {
			h.Explanation = defaultExplanation
		}
		out = append(out, h)
	}
	return out
}

func isQuoted(line string) bool {
	if utf8.RuneCountInString(line) < 2 {
		return false
	}
	return (strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`)) ||
		(strings.HasPrefix(line, "“") && strings.HasSuffix(line, "”"))
}

func hasExplanationPrefix(line string) bool {
	for _, p := range explanationPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// trimOneQuote 去掉首尾各一个引号
func trimOneQuote(s string) string {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'") {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) || strings.HasSuffix(s, "'") {
		s = s[:len(s)-1]
	}
	return s
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return s
}
