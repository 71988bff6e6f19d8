// Package handler 提供 HTTP 请求处理器
package handler

import (
	"rapidsite-ai-api/internal/application/sitegen"
	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/interfaces/http/dto"
	"rapidsite-ai-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 需求设计对话处理器
type ConversationHandler struct {
	cfg  *config.Config
	chat *sitegen.DesignChatService
}

// NewConversationHandler 创建设计对话处理器
func NewConversationHandler(cfg *config.Config, chat *sitegen.DesignChatService) *ConversationHandler {
	return &ConversationHandler{cfg: cfg, chat: chat}
}

// CreateMessage 开启新会话并发送首条消息
// @Summary 开启设计对话
// @Description 创建会话并发送首条需求消息，返回助手回复与结构化附加信息
// @Tags Conversations
// @Accept json
// @Produce json
// @Param body body dto.ChatMessageRequest true "消息"
// @Success 200 {object} dto.Response[dto.ChatMessageResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/chat/sessions [post]
func (h *ConversationHandler) CreateMessage(c *gin.Context) {
	h.sendMessage(c, "")
}

// SendMessage 向既有会话发送消息
// @Summary 继续设计对话
// @Tags Conversations
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.ChatMessageRequest true "消息"
// @Success 200 {object} dto.Response[dto.ChatMessageResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chat/sessions/{sid}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	h.sendMessage(c, dto.BindSessionID(c))
}

func (h *ConversationHandler) sendMessage(c *gin.Context, sessionID string) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	var req dto.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.chat.Chat(ctx, &sitegen.ChatRequest{
		UserID:    userID,
		SessionID: sessionID,
		WebsiteID: req.WebsiteID,
		Message:   req.Message,
		Provider:  provider,
		Model:     model,
	})
	if err != nil {
		logger.Error(ctx, "design chat failed", err)
		respondError(c, err)
		return
	}

	dto.Success(c, dto.ToChatMessageResponse(result))
}

// GetSession 获取会话详情
// @Summary 获取会话详情
// @Tags Conversations
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chat/sessions/{sid} [get]
func (h *ConversationHandler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := h.chat.GetSession(ctx, currentUserID(c), dto.BindSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Success(c, dto.ToSessionResponse(session))
}

// ListSessions 获取当前用户的会话列表
// @Summary 获取会话列表
// @Tags Conversations
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.SessionListResponse]
// @Router /v1/chat/sessions [get]
func (h *ConversationHandler) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)

	result, err := h.chat.ListSessions(ctx, currentUserID(c), repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list sessions", err)
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.ToSessionListResponse(result.Items), dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// ListTurns 获取会话轮次列表
// @Summary 获取会话轮次列表
// @Tags Conversations
// @Produce json
// @Param sid path string true "会话 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.TurnListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chat/sessions/{sid}/turns [get]
func (h *ConversationHandler) ListTurns(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)

	result, err := h.chat.ListTurns(ctx, currentUserID(c), dto.BindSessionID(c), repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.ToTurnListResponse(result.Items), dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}
