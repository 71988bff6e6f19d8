// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"rapidsite-ai-api/internal/domain/entity"
)

// WebsiteFilter 网站过滤条件
type WebsiteFilter struct {
	UserID string
	Status entity.WebsiteStatus
}

// WebsiteRepository 网站仓储接口
type WebsiteRepository interface {
	// Create 创建网站
	Create(ctx context.Context, website *entity.Website) error

	// GetByID 根据 ID 获取网站
	GetByID(ctx context.Context, id string) (*entity.Website, error)

	// Update 更新网站
	Update(ctx context.Context, website *entity.Website) error

	// Delete 删除网站及其页面
	Delete(ctx context.Context, id string) error

	// List 获取网站列表
	List(ctx context.Context, filter *WebsiteFilter, pagination Pagination) (*PagedResult[*entity.Website], error)

	// UpdateStatus 更新网站状态
	UpdateStatus(ctx context.Context, id string, status entity.WebsiteStatus) error

	// UpdatePages 更新页面清单与状态
	UpdatePages(ctx context.Context, id string, pages []string, status entity.WebsiteStatus) error

	// ExistsBySubdomain 检查子域名是否已占用
	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)
}
