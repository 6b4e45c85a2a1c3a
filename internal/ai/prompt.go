package ai

import (
	"strings"

	"github.com/liao/love-lens/internal/parser"
)

// DefaultExcerptMessages 摘录最近多少条消息
const DefaultExcerptMessages = 1000

const highlightInstruction = `Analyze this WhatsApp chat and extract 6-8 special romantic/friendship moments.

Format each moment EXACTLY as:

**[Name]** - *[Date]*
"[Message text - keep under 100 chars]"
💕 [Why it's special - one line]

Focus on love, support, humor, promises, and heartfelt moments. Use emojis: 💕❤️🥰😊🤝✨`

// BuildInstruction 返回高光提取的固定指令
func BuildInstruction() string {
	return highlightInstruction
}

// BuildExcerpt 取最近 n 条消息，每行一条
func BuildExcerpt(msgs []parser.Message, n int) string {
	if n <= 0 {
		n = DefaultExcerptMessages
	}
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}

	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(parser.FormatExcerptLine(m))
	}
	return b.String()
}

// BuildPrompt 组装最终发送的文本，摘录超长时截断
func BuildPrompt(instruction, excerpt string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nCONTENT:\n")
	b.WriteString(parser.TruncateRunes(excerpt, MaxExcerptChars))
	return b.String()
}
