package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/liao/love-lens/internal/ai"
	"github.com/liao/love-lens/internal/analysis"
)

// maxTranscriptBytes 上传聊天记录的大小上限
const maxTranscriptBytes = 32 << 20

type Handler struct {
	svc    *analysis.Service
	store  *analysis.Store
	gen    analysis.Generator
	apiKey string
}

// New apiKey 是服务端配置的默认 key，请求里没带 key 时使用
func New(svc *analysis.Service, store *analysis.Store, gen analysis.Generator, apiKey string) *Handler {
	return &Handler{
		svc:    svc,
		store:  store,
		gen:    gen,
		apiKey: apiKey,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
	r.Get("/analyses/{id}", h.handleGetReport)
	r.Post("/analyses/{id}/highlights", h.handleHighlights)
	r.Get("/analyses/{id}/moments", h.handleMoments)
	r.Post("/gemini", h.handleGeminiProxy)
}

// handleAnalyze 请求体是原始导出文本，或 {"transcript": "..."}
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTranscriptBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "transcript too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := string(body)
	if isJSON(r) {
		var payload struct {
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		text = payload.Transcript
	}

	if strings.TrimSpace(text) == "" {
		respondError(w, http.StatusBadRequest, "transcript is empty")
		return
	}

	report := h.svc.Analyze(text)
	h.store.Put(report)

	slog.Info("transcript analyzed", "id", report.ID, "messages", report.MessageCount, "score", report.Score)
	respondJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHighlights(w http.ResponseWriter, r *http.Request) {
	report, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := strings.TrimSpace(payload.APIKey)
	if key == "" {
		key = h.apiKey
	}
	if key == "" {
		respondError(w, http.StatusBadRequest, "apiKey is required")
		return
	}

	respondJSON(w, http.StatusOK, h.svc.EnhanceHighlights(r.Context(), report, key))
}

func (h *Handler) handleMoments(w http.ResponseWriter, r *http.Request) {
	report, ok := h.lookup(w, r)
	if !ok {
		return
	}

	moments, err := h.svc.Moments(r.Context(), report, r.URL.Query().Get("q"))
	switch {
	case errors.Is(err, analysis.ErrMomentsDisabled):
		respondError(w, http.StatusServiceUnavailable, "moment search unavailable")
		return
	case errors.Is(err, analysis.ErrEmptyQuery):
		respondError(w, http.StatusBadRequest, "q query parameter is required")
		return
	case err != nil:
		slog.Error("moment search failed", "id", report.ID, "error", err)
		respondError(w, http.StatusBadGateway, "moment search failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"moments": moments})
}

// handleGeminiProxy 浏览器直接转发指令和摘录，返回模型原文
func (h *Handler) handleGeminiProxy(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		APIKey      string `json:"apiKey"`
		Instruction string `json:"instruction"`
		Excerpt     string `json:"excerpt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.APIKey == "" || payload.Instruction == "" || payload.Excerpt == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if h.gen == nil {
		respondError(w, http.StatusServiceUnavailable, "generation unavailable")
		return
	}

	text, err := h.gen.GenerateHighlights(r.Context(), payload.APIKey, payload.Instruction, payload.Excerpt)
	if err != nil {
		slog.Warn("gemini proxy failed", "error", err)
		respondJSON(w, ai.HTTPStatus(err), map[string]string{
			"error":   "Gemini API error",
			"details": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*analysis.Report, bool) {
	report, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return report, true
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// respondJSON 发送JSON响应
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError 发送错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
