// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"rapidsite-ai-api/internal/domain/entity"
)

type ConversationSessionRepository interface {
	Create(ctx context.Context, session *entity.ConversationSession) error
	GetByID(ctx context.Context, id string) (*entity.ConversationSession, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.ConversationSession, error)
	Update(ctx context.Context, session *entity.ConversationSession) error
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.ConversationSession], error)
}

type ConversationTurnRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	ListBySession(ctx context.Context, sessionID string, pagination Pagination) (*PagedResult[*entity.ConversationTurn], error)

	// ListRecentBySession 返回会话最近的 limit 条回合，按时间升序
	ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*entity.ConversationTurn, error)
}
