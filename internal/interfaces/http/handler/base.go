package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/interfaces/http/dto"
	apperrors "rapidsite-ai-api/pkg/errors"
)

// resolveProviderModel 解析 LLM Provider 和 Model
func resolveProviderModel(cfg *config.Config, provider, model string) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("server config not configured")
	}

	p := strings.TrimSpace(provider)
	if p == "" {
		p = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	if p == "" {
		return "", "", fmt.Errorf("llm provider not specified")
	}
	if len(p) > 32 {
		return "", "", fmt.Errorf("llm provider too long")
	}

	providerCfg, ok := cfg.LLM.Providers[p]
	if !ok {
		return "", "", fmt.Errorf("llm provider not found: %s", p)
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = strings.TrimSpace(providerCfg.Model)
	}
	if len(m) > 64 {
		return "", "", fmt.Errorf("llm model too long")
	}
	return p, m, nil
}

// currentUserID 取认证中间件注入的用户 ID
func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// respondError 按业务错误码映射 HTTP 响应
func respondError(c *gin.Context, err error) {
	if apperrors.IsAppError(err) {
		appErr := apperrors.AsAppError(err)
		detail := &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		}
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, detail)
		return
	}
	dto.InternalError(c, "internal server error")
}
