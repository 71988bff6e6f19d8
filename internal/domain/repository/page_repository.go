// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"rapidsite-ai-api/internal/domain/entity"
)

// PageRepository 页面仓储接口
type PageRepository interface {
	// Create 创建页面
	Create(ctx context.Context, page *entity.Page) error

	// CreateBatch 批量创建页面
	CreateBatch(ctx context.Context, pages []*entity.Page) error

	// GetByID 根据 ID 获取页面
	GetByID(ctx context.Context, id string) (*entity.Page, error)

	// GetByName 根据网站和文件名获取页面
	GetByName(ctx context.Context, websiteID, name string) (*entity.Page, error)

	// Update 更新页面内容
	Update(ctx context.Context, page *entity.Page) error

	// Upsert 按 (website_id, name) 写入或覆盖页面
	Upsert(ctx context.Context, page *entity.Page) error

	// Delete 删除页面
	Delete(ctx context.Context, id string) error

	// DeleteByWebsite 删除网站的全部页面
	DeleteByWebsite(ctx context.Context, websiteID string) error

	// ListByWebsite 获取网站页面列表
	ListByWebsite(ctx context.Context, websiteID string) ([]*entity.Page, error)

	// ListNamesByWebsite 获取网站页面文件名列表
	ListNamesByWebsite(ctx context.Context, websiteID string) ([]string, error)
}
