// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"

	"rapidsite-ai-api/internal/application/sitegen"
	"rapidsite-ai-api/internal/application/sitegen/parse"
	"rapidsite-ai-api/internal/domain/entity"
)

// ChatMessageRequest 设计对话消息请求
type ChatMessageRequest struct {
	Message   string `json:"message" binding:"required,max=8000"`
	WebsiteID string `json:"website_id,omitempty" binding:"omitempty,uuid"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// QuickReplyDTO 快捷回复选项
type QuickReplyDTO struct {
	Text          string `json:"text"`
	Value         string `json:"value"`
	IsMultiSelect bool   `json:"is_multi_select,omitempty"`
}

// InteractiveComponentDTO 交互组件描述
type InteractiveComponentDTO struct {
	Type      string                 `json:"type"`
	PromptKey string                 `json:"prompt_key"`
	Props     map[string]interface{} `json:"props"`
}

// ChatMessageResponse 设计对话消息响应
type ChatMessageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`

	Brief        *ProjectBriefDTO `json:"brief,omitempty"`
	BriefUpdated bool             `json:"brief_updated"`

	QuickReplies []QuickReplyDTO          `json:"quick_replies,omitempty"`
	Interactive  *InteractiveComponentDTO `json:"interactive_component,omitempty"`

	PossiblyTruncated bool `json:"possibly_truncated,omitempty"`
}

// SessionResponse 会话信息
type SessionResponse struct {
	ID        string           `json:"id"`
	WebsiteID string           `json:"website_id,omitempty"`
	Brief     *ProjectBriefDTO `json:"brief,omitempty"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

// SessionListResponse 会话列表
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

// TurnResponse 对话回合
type TurnResponse struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// TurnListResponse 对话回合列表
type TurnListResponse struct {
	Turns []*TurnResponse `json:"turns"`
}

// ToChatMessageResponse 将对话结果转换为 DTO
func ToChatMessageResponse(result *sitegen.ChatResult) *ChatMessageResponse {
	if result == nil {
		return nil
	}
	resp := &ChatMessageResponse{
		SessionID:         result.SessionID,
		Reply:             result.Reply,
		Brief:             ToProjectBriefDTO(result.Brief),
		BriefUpdated:      result.BriefUpdated,
		PossiblyTruncated: result.PossiblyTruncated,
	}
	for _, qr := range result.QuickReplies {
		resp.QuickReplies = append(resp.QuickReplies, QuickReplyDTO{
			Text:          qr.Text,
			Value:         qr.Value,
			IsMultiSelect: qr.IsMultiSelect,
		})
	}
	resp.Interactive = toInteractiveDTO(result.Interactive)
	return resp
}

func toInteractiveDTO(comp *parse.InteractiveComponent) *InteractiveComponentDTO {
	if comp == nil {
		return nil
	}
	return &InteractiveComponentDTO{
		Type:      comp.Type,
		PromptKey: comp.PromptKey,
		Props:     comp.Props,
	}
}

// ToSessionResponse 将会话实体转换为 DTO
func ToSessionResponse(s *entity.ConversationSession) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		ID:        s.ID,
		WebsiteID: s.WebsiteID,
		Brief:     ToProjectBriefDTO(s.Brief),
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ToSessionListResponse 批量转换会话列表
func ToSessionListResponse(sessions []*entity.ConversationSession) *SessionListResponse {
	out := make([]*SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToSessionResponse(s))
	}
	return &SessionListResponse{Sessions: out}
}

// ToTurnResponse 将对话回合实体转换为 DTO
func ToTurnResponse(t *entity.ConversationTurn) *TurnResponse {
	if t == nil {
		return nil
	}
	return &TurnResponse{
		ID:        t.ID,
		Role:      string(t.Role),
		Content:   t.Content,
		Metadata:  t.Metadata,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ToTurnListResponse 批量转换对话回合列表
func ToTurnListResponse(turns []*entity.ConversationTurn) *TurnListResponse {
	out := make([]*TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, ToTurnResponse(t))
	}
	return &TurnListResponse{Turns: out}
}
