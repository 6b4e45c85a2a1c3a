package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	DefaultChatModel      = "gemini-1.5-flash"
	DefaultEmbeddingModel = "gemini-embedding-001"
	DefaultTimeout        = 30 * time.Second
	// MaxExcerptChars 发给模型的聊天摘录最大字符数
	MaxExcerptChars = 15000
)

// Options 客户端配置，API key 不在这里：每次调用时显式传入
type Options struct {
	ChatModels      []string
	EmbeddingModel  string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
	RPMLimit        int
	Timeout         time.Duration

	// 测试时指向 httptest server
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultOptions 与网页版保持一致的生成参数
func DefaultOptions() Options {
	return Options{
		ChatModels:      []string{DefaultChatModel},
		EmbeddingModel:  DefaultEmbeddingModel,
		Temperature:     0.35,
		TopP:            0.8,
		TopK:            40,
		MaxOutputTokens: 800,
		RPMLimit:        15,
		Timeout:         DefaultTimeout,
	}
}

type Client struct {
	opts     Options
	modelIdx atomic.Int64
	limiter  *rate.Limiter
}

func NewClient(opts Options) *Client {
	if len(opts.ChatModels) == 0 {
		opts.ChatModels = []string{DefaultChatModel}
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = DefaultEmbeddingModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPMLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RPMLimit)), opts.RPMLimit)
	}

	return &Client{opts: opts, limiter: limiter}
}

// currentModel 获取当前模型
func (c *Client) currentModel() string {
	idx := c.modelIdx.Load() % int64(len(c.opts.ChatModels))
	return c.opts.ChatModels[idx]
}

// rotateModel 切换到下一个模型
func (c *Client) rotateModel() string {
	newIdx := c.modelIdx.Add(1) % int64(len(c.opts.ChatModels))
	model := c.opts.ChatModels[newIdx]
	slog.Info("rotating to next model", "model", model)
	return model
}

func (c *Client) newGenAI(ctx context.Context, apiKey string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.opts.HTTPClient,
	}
	if c.opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// GenerateHighlights 把摘录和指令发给 Gemini，返回生成的原始文本
//
// 整个调用（含排队和模型轮换）受 Timeout 限制；429 时依次尝试其余模型，全部限流
// 则返回 ErrRateLimited。
func (c *Client) GenerateHighlights(ctx context.Context, apiKey, instruction, excerpt string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%w: missing API key", ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", classify(ctx, err)
		}
		// 排队时间会超过超时时间
		return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	client, err := c.newGenAI(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	contents := []*genai.Content{genai.NewContentFromText(BuildPrompt(instruction, excerpt), genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.opts.Temperature),
		TopP:            genai.Ptr(c.opts.TopP),
		TopK:            genai.Ptr(c.opts.TopK),
		MaxOutputTokens: c.opts.MaxOutputTokens,
	}

	var lastErr error
	for attempt := 0; attempt < len(c.opts.ChatModels); attempt++ {
		model := c.currentModel()
		resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			lastErr = classify(ctx, err)
			if errors.Is(lastErr, ErrRateLimited) {
				slog.Warn("model quota exceeded, switching", "model", model, "attempt", attempt+1)
				c.rotateModel()
				continue
			}
			slog.Warn("generate highlights failed", "model", model, "error", lastErr)
			return "", lastErr
		}

		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}
		slog.Debug("generated highlights", "model", model, "chars", len(text))
		return text, nil
	}
	return "", fmt.Errorf("all models exhausted after %d attempts: %w", len(c.opts.ChatModels), lastErr)
}

// embedAttempts 嵌入请求的最大尝试次数
const embedAttempts = 3

// Embedder 用固定的服务端 key 生成嵌入向量
type Embedder struct {
	client *genai.Client
	model  string
	// backoff 第 attempt 次失败后的等待时间
	backoff func(attempt int) time.Duration
}

func (c *Client) NewEmbedder(ctx context.Context, apiKey string) (*Embedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrInvalidRequest)
	}
	client, err := c.newGenAI(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, model: c.opts.EmbeddingModel, backoff: exponentialBackoff}, nil
}

func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Embed 生成文本嵌入向量，最后一次失败后直接返回
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < embedAttempts; attempt++ {
		resp, err := e.client.Models.EmbedContent(ctx, e.model,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
		if err != nil {
			lastErr = classify(ctx, err)
			slog.Warn("embed failed", "attempt", attempt+1, "error", lastErr)
			if attempt == embedAttempts-1 {
				break
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.backoff(attempt)):
			}
			continue
		}
		if len(resp.Embeddings) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp.Embeddings[0].Values, nil
	}
	return nil, fmt.Errorf("embed failed after %d attempts: %w", embedAttempts, lastErr)
}
