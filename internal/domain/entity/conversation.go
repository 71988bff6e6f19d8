// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

type ConversationSession struct {
	ID        string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string        `json:"user_id" gorm:"type:uuid;index;not null"`
	WebsiteID string        `json:"website_id,omitempty" gorm:"type:uuid;index"`
	Brief     *ProjectBrief `json:"brief,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ConversationSession) TableName() string {
	return "conversation_sessions"
}

func NewConversationSession(userID, websiteID string) *ConversationSession {
	now := time.Now()
	return &ConversationSession{
		UserID:    userID,
		WebsiteID: websiteID,
		Brief:     &ProjectBrief{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyBriefUpdate 将设计对话产出的简报更新合并进会话
func (s *ConversationSession) ApplyBriefUpdate(update *ProjectBrief) {
	if s.Brief == nil {
		s.Brief = &ProjectBrief{}
	}
	s.Brief.Merge(update)
	s.UpdatedAt = time.Now()
}

type ConversationTurn struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID string          `json:"session_id" gorm:"type:uuid;index;not null"`
	Role      Role            `json:"role" gorm:"type:varchar(16);not null"`
	Content   string          `json:"content" gorm:"type:text;not null"`
	Metadata  json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

func NewConversationTurn(sessionID string, role Role, content string, metadata json.RawMessage) *ConversationTurn {
	return &ConversationTurn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
