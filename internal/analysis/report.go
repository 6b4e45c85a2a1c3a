// Package analysis 把解析、指标、打分和高光串成一次完整的分析，并负责远程高光的回退。
package analysis

import (
	"sync"
	"time"

	"github.com/liao/love-lens/internal/highlight"
	"github.com/liao/love-lens/internal/metrics"
	"github.com/liao/love-lens/internal/parser"
	"github.com/liao/love-lens/internal/rag"
)

// 高光来源
const (
	SourceLocal  = "local"
	SourceRemote = "ai"
)

// Report 一次分析的全部结果，创建后只读
type Report struct {
	ID              string                `json:"id"`
	CreatedAt       time.Time             `json:"createdAt"`
	MessageCount    int                   `json:"messageCount"`
	Participants    int                   `json:"participants"`
	Conversations   int                   `json:"conversations"`
	Score           int                   `json:"score"`
	Breakdown       metrics.Breakdown     `json:"breakdown"`
	MedianReply     string                `json:"medianReply"`
	Metrics         *metrics.Result       `json:"metrics"`
	Highlights      []highlight.Highlight `json:"highlights"`
	HighlightSource string                `json:"highlightSource"`

	convs []parser.Conversation
	index *momentIndex
}

// HighlightResult 远程高光的结果；失败时带本地高光和提示语
type HighlightResult struct {
	Highlights []highlight.Highlight `json:"highlights"`
	Source     string                `json:"source"`
	Notice     string                `json:"notice,omitempty"`
}

// momentIndex 第一次检索时才建索引
type momentIndex struct {
	mu       sync.Mutex
	pipeline *rag.Pipeline
}

func countParticipants(msgs []parser.Message) int {
	seen := make(map[string]struct{})
	for _, m := range msgs {
		seen[m.Sender] = struct{}{}
	}
	return len(seen)
}
