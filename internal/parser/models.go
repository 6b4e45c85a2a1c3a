package parser

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SystemSender 表示没有发送者的系统/元数据行，不参与任何统计
const SystemSender = "System"

// excerptTextLimit 发送给模型的单条消息最大字符数
const excerptTextLimit = 200

// Message 单条聊天消息
type Message struct {
	Timestamp time.Time `json:"timestamp"` // 导出文件里的本地时间，不带时区，统一存为 UTC
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Raw       string    `json:"-"` // 原始行（含续行），仅用于排查
}

// IsSystem 是否为系统消息
func (m Message) IsSystem() bool {
	return m.Sender == SystemSender
}

// Conversation 一段完整对话（按时间间隔切分）
type Conversation struct {
	Messages []Message
	StartAt  time.Time
	EndAt    time.Time
}

// Format 将对话格式化为 "发送者: 内容" 的多行文本
func (c *Conversation) Format() string {
	var b strings.Builder
	for _, m := range c.Messages {
		b.WriteString(m.Sender)
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatExcerptLine 格式化为 "2023-08-12T22:15 | Alice: 内容"
func FormatExcerptLine(m Message) string {
	return m.Timestamp.Format("2006-01-02T15:04") + " | " + m.Sender + ": " + TruncateRunes(m.Text, excerptTextLimit)
}

// TruncateRunes 按字符（非字节）截断
func TruncateRunes(s string, n int) string {
	if n < 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
