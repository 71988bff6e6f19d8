// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rapidsite-ai-api/internal/domain/entity"
)

// PageRepository 页面仓储实现
type PageRepository struct {
	client *Client
}

// NewPageRepository 创建页面仓储
func NewPageRepository(client *Client) *PageRepository {
	return &PageRepository{client: client}
}

// Create 创建页面
func (r *PageRepository) Create(ctx context.Context, page *entity.Page) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(page).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

// CreateBatch 批量创建页面
func (r *PageRepository) CreateBatch(ctx context.Context, pages []*entity.Page) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.CreateBatch")
	defer span.End()

	if len(pages) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.Create(&pages).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create pages: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取页面
func (r *PageRepository) GetByID(ctx context.Context, id string) (*entity.Page, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var page entity.Page
	if err := db.First(&page, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &page, nil
}

// GetByName 根据网站和文件名获取页面
func (r *PageRepository) GetByName(ctx context.Context, websiteID, name string) (*entity.Page, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.GetByName")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var page entity.Page
	if err := db.First(&page, "website_id = ? AND name = ?", websiteID, name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get page by name: %w", err)
	}
	return &page, nil
}

// Update 更新页面内容
func (r *PageRepository) Update(ctx context.Context, page *entity.Page) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(page).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update page: %w", err)
	}
	return nil
}

// Upsert 按 (website_id, name) 写入或覆盖页面
func (r *PageRepository) Upsert(ctx context.Context, page *entity.Page) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "website_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(page).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

// Delete 删除页面
func (r *PageRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Page{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete page: %w", err)
	}
	return nil
}

// DeleteByWebsite 删除网站的全部页面
func (r *PageRepository) DeleteByWebsite(ctx context.Context, websiteID string) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.DeleteByWebsite")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Page{}, "website_id = ?", websiteID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete website pages: %w", err)
	}
	return nil
}

// ListByWebsite 获取网站页面列表
func (r *PageRepository) ListByWebsite(ctx context.Context, websiteID string) ([]*entity.Page, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.ListByWebsite")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var pages []*entity.Page
	if err := db.Where("website_id = ?", websiteID).Order("name ASC").Find(&pages).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}

// ListNamesByWebsite 获取网站页面文件名列表
func (r *PageRepository) ListNamesByWebsite(ctx context.Context, websiteID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.ListNamesByWebsite")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var names []string
	if err := db.Model(&entity.Page{}).Where("website_id = ?", websiteID).
		Order("name ASC").Pluck("name", &names).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list page names: %w", err)
	}
	return names, nil
}
