// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
)

// WebsiteRepository 网站仓储实现
type WebsiteRepository struct {
	client *Client
}

// NewWebsiteRepository 创建网站仓储
func NewWebsiteRepository(client *Client) *WebsiteRepository {
	return &WebsiteRepository{client: client}
}

// Create 创建网站
func (r *WebsiteRepository) Create(ctx context.Context, website *entity.Website) error {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(website).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create website: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取网站
func (r *WebsiteRepository) GetByID(ctx context.Context, id string) (*entity.Website, error) {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var website entity.Website
	if err := db.First(&website, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get website: %w", err)
	}
	return &website, nil
}

// Update 更新网站
func (r *WebsiteRepository) Update(ctx context.Context, website *entity.Website) error {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(website).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update website: %w", err)
	}
	return nil
}

// Delete 删除网站及其页面
func (r *WebsiteRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Page{}, "website_id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete website pages: %w", err)
	}
	if err := db.Delete(&entity.Website{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete website: %w", err)
	}
	return nil
}

// List 获取网站列表
func (r *WebsiteRepository) List(ctx context.Context, filter *repository.WebsiteFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Website], error) {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Website{})

	if filter != nil {
		if filter.UserID != "" {
			query = query.Where("user_id = ?", filter.UserID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count websites: %w", err)
	}

	var websites []*entity.Website
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&websites).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}

	return repository.NewPagedResult(websites, total, pagination), nil
}

// UpdateStatus 更新网站状态
func (r *WebsiteRepository) UpdateStatus(ctx context.Context, id string, status entity.WebsiteStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Website{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update website status: %w", err)
	}
	return nil
}

// UpdatePages 更新页面清单与状态
func (r *WebsiteRepository) UpdatePages(ctx context.Context, id string, pages []string, status entity.WebsiteStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.UpdatePages")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Website{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"pages":      pq.StringArray(pages),
			"status":     status,
			"updated_at": time.Now(),
		}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update website pages: %w", err)
	}
	return nil
}

// ExistsBySubdomain 检查子域名是否已占用
func (r *WebsiteRepository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.WebsiteRepository.ExistsBySubdomain")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Website{}).Where("subdomain = ?", subdomain).Count(&count).Error; err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check subdomain exists: %w", err)
	}
	return count > 0, nil
}
