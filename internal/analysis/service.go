package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liao/love-lens/internal/ai"
	"github.com/liao/love-lens/internal/highlight"
	"github.com/liao/love-lens/internal/metrics"
	"github.com/liao/love-lens/internal/parser"
	"github.com/liao/love-lens/internal/rag"
)

var (
	ErrMomentsDisabled = errors.New("moment search is disabled")
	ErrEmptyQuery      = errors.New("empty moment query")
)

// Generator 远程高光生成，由 ai.Client 实现
type Generator interface {
	GenerateHighlights(ctx context.Context, apiKey, instruction, excerpt string) (string, error)
}

// EmbedFunc 文本嵌入，签名与 chromem.EmbeddingFunc 一致
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

type Options struct {
	HighlightLimit  int
	ExcerptMessages int
	ExcerptMaxChars int
	SessionGap      time.Duration

	MomentsTopK          int
	MomentsMinSimilarity float32
}

func DefaultOptions() Options {
	return Options{
		HighlightLimit:       highlight.DefaultLimit,
		ExcerptMessages:      ai.DefaultExcerptMessages,
		ExcerptMaxChars:      ai.MaxExcerptChars,
		SessionGap:           30 * time.Minute,
		MomentsTopK:          3,
		MomentsMinSimilarity: 0.3,
	}
}

type Service struct {
	opts  Options
	gen   Generator
	embed EmbedFunc
	rec   Recorder
}

// NewService gen 为 nil 时只能做本地分析
func NewService(opts Options, gen Generator, rec Recorder) *Service {
	if opts.HighlightLimit <= 0 {
		opts.HighlightLimit = highlight.DefaultLimit
	}
	if opts.ExcerptMessages <= 0 {
		opts.ExcerptMessages = ai.DefaultExcerptMessages
	}
	if opts.ExcerptMaxChars <= 0 || opts.ExcerptMaxChars > ai.MaxExcerptChars {
		opts.ExcerptMaxChars = ai.MaxExcerptChars
	}
	if opts.SessionGap <= 0 {
		opts.SessionGap = 30 * time.Minute
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Service{opts: opts, gen: gen, rec: rec}
}

// SetEmbedder 开启片段检索
func (s *Service) SetEmbedder(fn EmbedFunc) {
	s.embed = fn
}

func (s *Service) MomentsEnabled() bool { return s.embed != nil }

// Analyze 解析文本并生成报告，只走本地逻辑
func (s *Service) Analyze(text string) *Report {
	return s.AnalyzeMessages(parser.Parse(text))
}

// AnalyzeMessages 对已解析的消息生成报告
func (s *Service) AnalyzeMessages(msgs []parser.Message) *Report {
	start := time.Now()

	res := metrics.Compute(msgs)
	score := metrics.Score(res)
	convs := parser.SplitConversations(res.Filtered, s.opts.SessionGap)

	r := &Report{
		ID:              uuid.NewString(),
		CreatedAt:       start.UTC(),
		MessageCount:    len(msgs),
		Participants:    countParticipants(msgs),
		Conversations:   len(convs),
		Score:           score,
		Breakdown:       metrics.NewBreakdown(res),
		MedianReply:     metrics.HumanizeDuration(time.Duration(res.MedianReplySec * float64(time.Second))),
		Metrics:         res,
		Highlights:      highlight.Select(res.Filtered, s.opts.HighlightLimit),
		HighlightSource: SourceLocal,
		convs:           convs,
		index:           &momentIndex{},
	}

	s.rec.ObserveAnalysis(len(msgs), score, time.Since(start))
	slog.Debug("analysis done",
		"id", r.ID,
		"messages", r.MessageCount,
		"principals", res.Principals,
		"score", score,
	)
	return r
}

// EnhanceHighlights 请求远程高光，任何失败都回退到本地高光并附上提示，不返回错误
func (s *Service) EnhanceHighlights(ctx context.Context, r *Report, apiKey string) HighlightResult {
	local := HighlightResult{Highlights: r.Highlights, Source: SourceLocal}

	if s.gen == nil {
		local.Notice = ai.Notice(ai.ErrUpstream)
		return local
	}

	excerpt := ai.BuildExcerpt(r.Metrics.Filtered, s.opts.ExcerptMessages)
	excerpt = parser.TruncateRunes(excerpt, s.opts.ExcerptMaxChars)

	reply, err := s.gen.GenerateHighlights(ctx, apiKey, ai.BuildInstruction(), excerpt)
	if err != nil {
		s.rec.ObserveEnhancement(outcomeOf(err))
		slog.Warn("remote highlights failed, using local", "id", r.ID, "error", err)
		local.Notice = ai.Notice(err)
		return local
	}

	hs := ai.ParseHighlights(reply)
	if len(hs) == 0 {
		s.rec.ObserveEnhancement(OutcomeNoRecords)
		slog.Warn("remote reply had no highlights, using local", "id", r.ID, "chars", len(reply))
		local.Notice = ai.Notice(ai.ErrEmptyResponse)
		return local
	}

	s.rec.ObserveEnhancement(OutcomeRemote)
	return HighlightResult{Highlights: hs, Source: SourceRemote}
}

// Moments 在报告的对话片段里做语义检索
func (s *Service) Moments(ctx context.Context, r *Report, query string) ([]rag.Moment, error) {
	if s.embed == nil {
		return nil, ErrMomentsDisabled
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	p, err := s.pipelineFor(ctx, r)
	if err != nil {
		return nil, err
	}
	return p.Retrieve(ctx, query)
}

func (s *Service) pipelineFor(ctx context.Context, r *Report) (*rag.Pipeline, error) {
	r.index.mu.Lock()
	defer r.index.mu.Unlock()

	if r.index.pipeline != nil {
		return r.index.pipeline, nil
	}

	store, err := rag.NewStore(s.embed)
	if err != nil {
		return nil, err
	}
	n, err := store.Index(ctx, r.convs)
	if err != nil {
		return nil, fmt.Errorf("build moment index: %w", err)
	}
	slog.Info("moment index built", "id", r.ID, "conversations", n)

	r.index.pipeline = rag.NewPipeline(store, s.opts.MomentsTopK, s.opts.MomentsMinSimilarity)
	return r.index.pipeline, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ai.ErrInvalidRequest):
		return OutcomeInvalidRequest
	case errors.Is(err, ai.ErrPermissionDenied):
		return OutcomePermissionDenied
	case errors.Is(err, ai.ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, ai.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ai.ErrEmptyResponse):
		return OutcomeNoRecords
	default:
		return OutcomeUpstream
	}
}
