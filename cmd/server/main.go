package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liao/love-lens/internal/ai"
	"github.com/liao/love-lens/internal/analysis"
	"github.com/liao/love-lens/internal/config"
	"github.com/liao/love-lens/internal/server"
)

func main() {
	configPath := flag.String("config", "", "config file path (optional)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using system environment only", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Gemini 客户端，key 每次调用时传入
	client := ai.NewClient(cfg.Gemini.ClientOptions())
	slog.Info("AI client initialized", "models", cfg.Gemini.ChatModels)

	svc := analysis.NewService(cfg.AnalysisOptions(), client, analysis.NewPromRecorder(nil))

	// 片段检索只在配置了服务端 key 时开启
	if cfg.Gemini.APIKey != "" {
		embedder, err := client.NewEmbedder(ctx, cfg.Gemini.APIKey)
		if err != nil {
			slog.Warn("create embedder failed, moment search disabled", "error", err)
		} else {
			svc.SetEmbedder(embedder.Embed)
			slog.Info("moment search enabled", "model", cfg.Gemini.EmbeddingModel)
		}
	} else {
		slog.Info("no server-side Gemini key, moment search disabled")
	}

	store := analysis.NewStore(cfg.Analysis.MaxReports)
	h := server.New(svc, store, client, cfg.Gemini.APIKey)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(h, promhttp.Handler()),
		ReadHeaderTimeout: cfg.Server.HeaderTimeout(),
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("love-lens listening", "addr", cfg.Server.Addr)
	if err := runServer(ctx, srv); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("shut down")
}

// runServer 阻塞直到 ctx 取消或监听失败
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
