package rag

import (
	"context"
	"log/slog"
	"time"
)

// Moment 检索到的一段对话
type Moment struct {
	Text       string    `json:"text"`
	Similarity float32   `json:"similarity"`
	StartAt    time.Time `json:"startAt"`
	EndAt      time.Time `json:"endAt"`
}

type Pipeline struct {
	store         *Store
	topK          int
	minSimilarity float32
}

func NewPipeline(store *Store, topK int, minSimilarity float32) *Pipeline {
	return &Pipeline{
		store:         store,
		topK:          topK,
		minSimilarity: minSimilarity,
	}
}

// Retrieve 根据描述检索最相关的对话片段
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]Moment, error) {
	if p.store == nil || p.store.Count() == 0 {
		slog.Debug("no vectors in store, skipping retrieval")
		return nil, nil
	}

	results, err := p.store.Query(ctx, query, p.topK, p.minSimilarity)
	if err != nil {
		return nil, err
	}

	moments := make([]Moment, 0, len(results))
	for _, r := range results {
		m := Moment{Text: r.Content, Similarity: r.Similarity}
		m.StartAt, _ = time.Parse(time.RFC3339, r.Metadata["start"])
		m.EndAt, _ = time.Parse(time.RFC3339, r.Metadata["end"])
		moments = append(moments, m)
	}

	slog.Debug("retrieved moments", "query", query, "count", len(moments))
	return moments, nil
}
