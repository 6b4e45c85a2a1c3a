package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// 远程调用失败的分类，调用方据此给出提示并回退到本地高光
var (
	ErrInvalidRequest   = errors.New("invalid API key or request format")
	ErrPermissionDenied = errors.New("API key doesn't have permission or quota exceeded")
	ErrRateLimited      = errors.New("rate limit exceeded, please try again later")
	ErrTimeout          = errors.New("request timed out, please try again")
	ErrUpstream         = errors.New("gemini API error")
	ErrEmptyResponse    = errors.New("empty response from AI")
)

// UpstreamError 带 HTTP 状态码的上游错误，Unwrap 到上面的分类
type UpstreamError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (%d)", e.kind, e.StatusCode)
	}
	return fmt.Sprintf("%v (%d): %s", e.kind, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.kind }

// HTTPStatus 用于代理接口把分类映射回 HTTP 状态码
func HTTPStatus(err error) int {
	var ue *UpstreamError
	switch {
	case errors.As(err, &ue) && ue.StatusCode > 0:
		return ue.StatusCode
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrEmptyResponse):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// Notice 给用户看的提示语
func Notice(err error) string {
	const prefix = "AI analysis failed. "
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrPermissionDenied):
		return prefix + "Please check your API key."
	case errors.Is(err, ErrRateLimited):
		return prefix + "API quota exceeded. Try again later."
	case errors.Is(err, ErrTimeout):
		return prefix + "Request timed out. Please try again."
	default:
		return prefix + "Using local analysis instead."
	}
}

// classify 把 genai / 网络错误归类
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.Code, apiErr.Status, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusError(apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message)
	}

	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func statusError(code int, status, message string) error {
	kind := ErrUpstream
	switch {
	case code == http.StatusBadRequest:
		kind = ErrInvalidRequest
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = ErrPermissionDenied
	case code == http.StatusTooManyRequests, strings.EqualFold(status, "RESOURCE_EXHAUSTED"):
		kind = ErrRateLimited
	}
	return &UpstreamError{StatusCode: code, Message: message, kind: kind}
}
