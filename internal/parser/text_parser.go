package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// noiseMarkers 加密提示、媒体省略、已删除消息，命中即丢弃
var noiseMarkers = []string{
	"messages to this chat and calls are now secured",
	"<media omitted>",
	"this message was deleted",
}

// byteOrderMark 部分导出文件以 UTF-8 BOM 开头
const byteOrderMark = "\uFEFF"

type state int

const (
	stateIdle state = iota
	stateAccumulating
)

// Parser 逐行消费导出文本的状态机
//
// idle 状态下没有缓冲消息，非头部行直接丢弃；accumulating 状态下非头部行作为续行
// 追加到当前消息。遇到新的头部行或输入结束时 flush。
type Parser struct {
	state    state
	current  header
	text     strings.Builder
	raw      strings.Builder
	messages []Message
}

func NewParser() *Parser {
	return &Parser{}
}

// Feed 处理一行（不含换行符）
func (p *Parser) Feed(line string) {
	if h, ok := parseHeader(line); ok {
		p.flush()
		p.current = h
		p.text.WriteString(h.text)
		p.raw.WriteString(line)
		p.state = stateAccumulating
		return
	}

	if p.state == stateAccumulating {
		p.text.WriteString("\n")
		p.text.WriteString(line)
		p.raw.WriteString("\n")
		p.raw.WriteString(line)
	}
}

// Finish flush 最后一条缓冲消息并返回全部消息
func (p *Parser) Finish() []Message {
	p.flush()
	return p.messages
}

func (p *Parser) flush() {
	if p.state != stateAccumulating {
		return
	}
	text := strings.TrimSpace(p.text.String())
	if text != "" && !isNoise(text) {
		p.messages = append(p.messages, Message{
			Timestamp: p.current.ts,
			Sender:    p.current.sender,
			Text:      text,
			Raw:       p.raw.String(),
		})
	}
	p.text.Reset()
	p.raw.Reset()
	p.current = header{}
	p.state = stateIdle
}

func isNoise(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range noiseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Parse 解析完整的导出文本，按原始顺序返回消息
func Parse(text string) []Message {
	text = strings.TrimPrefix(text, byteOrderMark)
	p := NewParser()
	for _, line := range strings.Split(text, "\n") {
		p.Feed(strings.TrimSuffix(line, "\r"))
	}
	return p.Finish()
}

// ParseReader 从 reader 中逐行解析
func ParseReader(r io.Reader) ([]Message, error) {
	p := NewParser()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024) // 1MB buffer

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, byteOrderMark)
			first = false
		}
		p.Feed(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return p.Finish(), nil
}

// ParseFile 解析导出的 .txt 聊天记录
func ParseFile(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ParseReader(f)
}
