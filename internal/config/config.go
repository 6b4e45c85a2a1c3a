package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/liao/love-lens/internal/ai"
	"github.com/liao/love-lens/internal/analysis"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	RAG      RAGConfig      `mapstructure:"rag"`
}

type ServerConfig struct {
	Addr              string `mapstructure:"addr"`
	ReadHeaderTimeout int    `mapstructure:"read_header_timeout"` // 秒
}

type GeminiConfig struct {
	APIKey          string   `mapstructure:"api_key"`
	ChatModels      []string `mapstructure:"chat_models"`
	EmbeddingModel  string   `mapstructure:"embedding_model"`
	Temperature     float32  `mapstructure:"temperature"`
	MaxOutputTokens int32    `mapstructure:"max_output_tokens"`
	TopP            float32  `mapstructure:"top_p"`
	TopK            float32  `mapstructure:"top_k"`
	RPMLimit        int      `mapstructure:"rpm_limit"`
	TimeoutSec      int      `mapstructure:"timeout_sec"`
}

type AnalysisConfig struct {
	HighlightLimit  int `mapstructure:"highlight_limit"`
	ExcerptMessages int `mapstructure:"excerpt_messages"`
	ExcerptMaxChars int `mapstructure:"excerpt_max_chars"`
	SessionGapMin   int `mapstructure:"session_gap_min"`
	MaxReports      int `mapstructure:"max_reports"`
}

type RAGConfig struct {
	TopK          int     `mapstructure:"top_k"`
	MinSimilarity float32 `mapstructure:"min_similarity"`
}

func (c GeminiConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c AnalysisConfig) SessionGap() time.Duration {
	return time.Duration(c.SessionGapMin) * time.Minute
}

func (c ServerConfig) HeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeout) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 10)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.chat_models", []string{"gemini-1.5-flash"})
	v.SetDefault("gemini.embedding_model", "gemini-embedding-001")
	v.SetDefault("gemini.temperature", 0.35)
	v.SetDefault("gemini.max_output_tokens", 800)
	v.SetDefault("gemini.top_p", 0.8)
	v.SetDefault("gemini.top_k", 40)
	v.SetDefault("gemini.rpm_limit", 15)
	v.SetDefault("gemini.timeout_sec", 30)

	v.SetDefault("analysis.highlight_limit", 15)
	v.SetDefault("analysis.excerpt_messages", 1000)
	v.SetDefault("analysis.excerpt_max_chars", 15000)
	v.SetDefault("analysis.session_gap_min", 30)
	v.SetDefault("analysis.max_reports", 100)

	v.SetDefault("rag.top_k", 3)
	v.SetDefault("rag.min_similarity", 0.3)
}

// Load 读取配置文件；path 为空时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// 环境变量覆盖
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		v.Set("gemini.api_key", key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if len(c.Gemini.ChatModels) == 0 {
		return fmt.Errorf("gemini.chat_models must not be empty")
	}
	if c.Analysis.HighlightLimit <= 0 {
		return fmt.Errorf("analysis.highlight_limit must be positive, got %d", c.Analysis.HighlightLimit)
	}
	if c.Analysis.MaxReports <= 0 {
		return fmt.Errorf("analysis.max_reports must be positive, got %d", c.Analysis.MaxReports)
	}
	if c.RAG.MinSimilarity < 0 || c.RAG.MinSimilarity > 1 {
		return fmt.Errorf("rag.min_similarity must be in [0,1], got %v", c.RAG.MinSimilarity)
	}
	return nil
}

// ClientOptions 转成 ai.Client 的配置
func (c GeminiConfig) ClientOptions() ai.Options {
	opts := ai.DefaultOptions()
	opts.ChatModels = c.ChatModels
	opts.EmbeddingModel = c.EmbeddingModel
	opts.Temperature = c.Temperature
	opts.TopP = c.TopP
	opts.TopK = c.TopK
	opts.MaxOutputTokens = c.MaxOutputTokens
	opts.RPMLimit = c.RPMLimit
	opts.Timeout = c.Timeout()
	return opts
}

// AnalysisOptions 转成 analysis.Service 的配置
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		HighlightLimit:       c.Analysis.HighlightLimit,
		ExcerptMessages:      c.Analysis.ExcerptMessages,
		ExcerptMaxChars:      c.Analysis.ExcerptMaxChars,
		SessionGap:           c.Analysis.SessionGap(),
		MomentsTopK:          c.RAG.TopK,
		MomentsMinSimilarity: c.RAG.MinSimilarity,
	}
}
