package rag

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liao/love-lens/internal/parser"
)

var vocab = []string{"pizza", "rain", "love", "work"}

// keywordEmbed 按关键词出现次数生成归一化向量
func keywordEmbed(_ context.Context, text string) ([]float32, error) {
	text = strings.ToLower(text)
	vec := make([]float32, len(vocab)+1)
	for i, w := range vocab {
		vec[i] = float32(strings.Count(text, w))
	}
	vec[len(vocab)] = 0.01

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func conv(start time.Time, texts ...string) parser.Conversation {
	c := parser.Conversation{StartAt: start, EndAt: start.Add(time.Duration(len(texts)) * time.Minute)}
	for i, t := range texts {
		c.Messages = append(c.Messages, parser.Message{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Sender:    "Alice",
			Text:      t,
		})
	}
	return c
}

func TestStoreIndexAndRetrieve(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, time.March, 1, 20, 0, 0, 0, time.UTC)

	store, err := NewStore(keywordEmbed)
	require.NoError(t, err)

	n, err := store.Index(ctx, []parser.Conversation{
		conv(t0, "pizza tonight?", "yes pizza please"),
		conv(t0.Add(48*time.Hour), "so much rain today"),
		conv(t0.Add(96*time.Hour), "stuck at work", "work again"),
		{},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, store.Count())

	p := NewPipeline(store, 2, 0.5)
	moments, err := p.Retrieve(ctx, "the pizza night")
	require.NoError(t, err)
	require.Len(t, moments, 1)
	assert.Contains(t, moments[0].Text, "yes pizza please")
	assert.True(t, moments[0].StartAt.Equal(t0))
	assert.Greater(t, moments[0].Similarity, float32(0.9))
}

func TestRetrieve_EmptyStore(t *testing.T) {
	store, err := NewStore(keywordEmbed)
	require.NoError(t, err)

	moments, err := NewPipeline(store, 3, 0).Retrieve(context.Background(), "love")
	require.NoError(t, err)
	assert.Empty(t, moments)

	moments, err = NewPipeline(nil, 3, 0).Retrieve(context.Background(), "love")
	require.NoError(t, err)
	assert.Empty(t, moments)
}

func TestQuery_TopKLargerThanCollection(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(keywordEmbed)
	require.NoError(t, err)

	_, err = store.Index(ctx, []parser.Conversation{conv(time.Now(), "love you")})
	require.NoError(t, err)

	results, err := store.Query(ctx, "love", 10, 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
