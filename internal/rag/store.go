package rag

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/liao/love-lens/internal/parser"
)

const collectionName = "conversations"

// Store 单份聊天记录的向量索引，只在内存里
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore 创建内存向量存储
func NewStore(embedFunc func(ctx context.Context, text string) ([]float32, error)) (*Store, error) {
	db := chromem.NewDB()

	col, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("get/create collection: %w", err)
	}
	return &Store{db: db, collection: col}, nil
}

// Index 把每段对话作为一个文档写入，返回写入的文档数
func (s *Store) Index(ctx context.Context, convs []parser.Conversation) (int, error) {
	docs := make([]chromem.Document, 0, len(convs))
	for i, conv := range convs {
		content := conv.Format()
		if content == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      "conv-" + strconv.Itoa(i),
			Content: content,
			Metadata: map[string]string{
				"start": conv.StartAt.Format(time.RFC3339),
				"end":   conv.EndAt.Format(time.RFC3339),
				"count": strconv.Itoa(len(conv.Messages)),
			},
		})
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("index conversations: %w", err)
	}
	return len(docs), nil
}

// Query 检索相似对话
func (s *Store) Query(ctx context.Context, text string, topK int, minSimilarity float32) ([]Result, error) {
	count := s.collection.Count()
	if count == 0 || topK <= 0 {
		return nil, nil
	}

	docs, err := s.collection.Query(ctx, text, min(topK, count), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	var results []Result
	for _, d := range docs {
		if d.Similarity < minSimilarity {
			continue
		}
		results = append(results, Result{
			Content:    d.Content,
			Similarity: d.Similarity,
			Metadata:   d.Metadata,
		})
	}
	return results, nil
}

// AddDocuments 批量写入文档
func (s *Store) AddDocuments(ctx context.Context, docs []chromem.Document) error {
	return s.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

// Count 返回文档数量
func (s *Store) Count() int {
	return s.collection.Count()
}

type Result struct {
	Content    string
	Similarity float32
	Metadata   map[string]string
}
