package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// sp 导出文件在 AM/PM 前常用窄不换行空格 U+202F
const sp = `[\s\x{00A0}\x{202F}]`

var (
	// "12/08/23, 10:15 pm - Alice: 内容"
	hyphenRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4}),` + sp + `+(\d{1,2}):(\d{2})(?::(\d{2}))?` + sp + `*(am|pm|AM|PM)?` + sp + `*-` + sp + `([\s\S]*)$`)
	// "[12/08/23, 10:15:22 pm] Alice: 内容"
	bracketRe = regexp.MustCompile(`^\[(\d{1,2})/(\d{1,2})/(\d{2,4}),` + sp + `+(\d{1,2}):(\d{2})(?::(\d{2}))?` + sp + `*(am|pm|AM|PM)?\]` + sp + `+([\s\S]*)$`)
	// "12 Aug 2023, 22:15 - Alice: 内容"
	monthNameRe = regexp.MustCompile(`^(\d{1,2})` + sp + `+([A-Za-z]{3,})` + sp + `+(\d{2,4}),` + sp + `+(\d{1,2}):(\d{2})(?::(\d{2}))?` + sp + `*-` + sp + `([\s\S]*)$`)
)

var monthAbbr = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

type dialect int

const (
	dialectHyphen dialect = iota
	dialectBracket
	dialectMonthName
)

// 按固定优先级逐个尝试
var dialects = []dialect{dialectHyphen, dialectBracket, dialectMonthName}

type header struct {
	ts     time.Time
	sender string
	text   string
}

// parseHeader 识别新消息的头部行，不是头部时返回 false
func parseHeader(line string) (header, bool) {
	for _, d := range dialects {
		ts, rest, ok := d.match(line)
		if !ok {
			continue
		}
		sender, text := splitSender(rest)
		return header{ts: ts, sender: sender, text: text}, true
	}
	return header{}, false
}

func (d dialect) match(line string) (time.Time, string, bool) {
	switch d {
	case dialectHyphen:
		if m := hyphenRe.FindStringSubmatch(line); m != nil {
			ts, ok := numericTimestamp(m[1], m[2], m[3], m[4], m[5], m[6], m[7])
			return ts, m[8], ok
		}
	case dialectBracket:
		if m := bracketRe.FindStringSubmatch(line); m != nil {
			ts, ok := numericTimestamp(m[1], m[2], m[3], m[4], m[5], m[6], m[7])
			return ts, m[8], ok
		}
	case dialectMonthName:
		if m := monthNameRe.FindStringSubmatch(line); m != nil {
			month := monthIndex(m[2])
			if month == 0 {
				return time.Time{}, "", false
			}
			ts, ok := buildTimestamp(year(m[3]), month, atoi(m[1]), atoi(m[4]), atoi(m[5]), atoi(m[6]))
			return ts, m[7], ok
		}
	}
	return time.Time{}, "", false
}

// numericTimestamp 处理 D/M/Y 格式，marker 为空时小时已经是 24 小时制
func numericTimestamp(day, month, yr, hour, minute, sec, marker string) (time.Time, bool) {
	h := atoi(hour)
	switch strings.ToLower(marker) {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	return buildTimestamp(year(yr), atoi(month), atoi(day), h, atoi(minute), atoi(sec))
}

// buildTimestamp 构造时间并校验日历合法性，例如 31/02 会被拒绝
func buildTimestamp(year, month, day, hour, minute, sec int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day {
		return time.Time{}, false
	}
	return ts, true
}

// year 两位年份一律加 2000
func year(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

// monthIndex 返回 1-12，无法识别时返回 0
func monthIndex(name string) int {
	if len(name) < 3 {
		return 0
	}
	prefix := strings.ToLower(name[:3])
	for i, abbr := range monthAbbr {
		if abbr == prefix {
			return i + 1
		}
	}
	return 0
}

// splitSender 优先按 ": " 切分，其次 " - "，都没有则视为系统消息
func splitSender(rest string) (string, string) {
	if idx := strings.Index(rest, ": "); idx > -1 {
		return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+2:])
	}
	if idx := strings.Index(rest, " - "); idx > -1 {
		return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+3:])
	}
	return SystemSender, rest
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
