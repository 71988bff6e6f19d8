package node

import (
	"context"
	"errors"
	"strings"

	apperrors "rapidsite-ai-api/pkg/errors"
)

// ModelErrorKind 模型调用错误分类
type ModelErrorKind string

const (
	ModelErrorRateLimited     ModelErrorKind = "rate_limited"
	ModelErrorInvalidRequest  ModelErrorKind = "invalid_request"
	ModelErrorTimeout         ModelErrorKind = "timeout"
	ModelErrorUpstreamFailure ModelErrorKind = "upstream_failure"
)

// ClassifyModelError 将底层模型错误归类为统一的应用错误
// 分类依据提供商返回的错误文案，未识别的一律视作上游故障
func ClassifyModelError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeLLMTimeout, "LLM call timed out")
	}

	if IsResponseFormatUnsupportedError(err) {
		return apperrors.Wrap(err, apperrors.CodeLLMInvalidRequest, "LLM request rejected")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return apperrors.Wrap(err, apperrors.CodeLLMRateLimited, "LLM provider rate limited")
	case strings.Contains(msg, "context length") || strings.Contains(msg, "maximum context") ||
		strings.Contains(msg, "invalid request") || strings.Contains(msg, "400"):
		return apperrors.Wrap(err, apperrors.CodeLLMInvalidRequest, "LLM request rejected")
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return apperrors.Wrap(err, apperrors.CodeLLMTimeout, "LLM call timed out")
	default:
		return apperrors.Wrap(err, apperrors.CodeLLMProviderError, "LLM provider failure")
	}
}

// ModelErrorKindOf 返回错误的分类标签，用于日志与指标
func ModelErrorKindOf(err error) ModelErrorKind {
	appErr := ClassifyModelError(err)
	if appErr == nil {
		return ""
	}
	switch appErr.Code {
	case apperrors.CodeLLMRateLimited:
		return ModelErrorRateLimited
	case apperrors.CodeLLMInvalidRequest:
		return ModelErrorInvalidRequest
	case apperrors.CodeLLMTimeout:
		return ModelErrorTimeout
	default:
		return ModelErrorUpstreamFailure
	}
}

// IsResponseFormatUnsupportedError 判断提供商是否不支持 response_format 结构化输出
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_schema"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "response_schema"):
		return true
	default:
		return false
	}
}
