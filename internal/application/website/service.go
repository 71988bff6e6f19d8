// Package website 提供网站与页面的查询维护服务
package website

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/infrastructure/persistence/redis"
	apperrors "rapidsite-ai-api/pkg/errors"
	"rapidsite-ai-api/pkg/logger"
)

// 网站详情读取缓存的有效期
const websiteCacheTTL = 30 * time.Second

// defaultPageContent 页面清单修正时补建的默认首页内容
const defaultPageContent = "<h1>Welcome to your website</h1><p>This is a default page created because no valid pages were found.</p>"

// Service 网站管理服务
type Service struct {
	websiteRepo repository.WebsiteRepository
	pageRepo    repository.PageRepository
	tx          repository.Transactor
	cache       *redis.Cache
}

// NewService 创建网站管理服务
func NewService(
	websiteRepo repository.WebsiteRepository,
	pageRepo repository.PageRepository,
	tx repository.Transactor,
	cache *redis.Cache,
) *Service {
	return &Service{
		websiteRepo: websiteRepo,
		pageRepo:    pageRepo,
		tx:          tx,
		cache:       cache,
	}
}

// Get 查询网站，校验归属
func (s *Service) Get(ctx context.Context, userID, websiteID string) (*entity.Website, error) {
	website, err := s.loadWebsite(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	if website.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return website, nil
}

// loadWebsite 读取网站详情，经由 Redis Read-Through 缓存
func (s *Service) loadWebsite(ctx context.Context, websiteID string) (*entity.Website, error) {
	if s.cache == nil {
		return s.loadWebsiteFromDB(ctx, websiteID)
	}

	raw, err := s.cache.GetOrLoadSafe(ctx, redis.BuildWebsiteKey(websiteID), websiteCacheTTL, func() (interface{}, error) {
		return s.loadWebsiteFromDB(ctx, websiteID)
	})
	if err != nil {
		return nil, err
	}

	var website entity.Website
	if err := json.Unmarshal(raw, &website); err != nil {
		logger.Warn(ctx, "corrupt website cache entry, falling back to database", "website_id", websiteID)
		return s.loadWebsiteFromDB(ctx, websiteID)
	}
	return &website, nil
}

func (s *Service) loadWebsiteFromDB(ctx context.Context, websiteID string) (*entity.Website, error) {
	website, err := s.websiteRepo.GetByID(ctx, websiteID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load website")
	}
	if website == nil {
		return nil, apperrors.ErrWebsiteNotFound
	}
	return website, nil
}

// List 分页查询用户的网站
func (s *Service) List(ctx context.Context, userID string, status entity.WebsiteStatus, pagination repository.Pagination) (*repository.PagedResult[*entity.Website], error) {
	result, err := s.websiteRepo.List(ctx, &repository.WebsiteFilter{UserID: userID, Status: status}, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list websites")
	}
	return result, nil
}

// Rename 重命名网站
func (s *Service) Rename(ctx context.Context, userID, websiteID, name string) (*entity.Website, error) {
	website, err := s.Get(ctx, userID, websiteID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "name is required")
	}
	website.Name = name
	if err := s.websiteRepo.Update(ctx, website); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update website")
	}
	s.invalidateCache(ctx, website.ID)
	return website, nil
}

// Delete 删除网站及其全部页面
func (s *Service) Delete(ctx context.Context, userID, websiteID string) error {
	if _, err := s.Get(ctx, userID, websiteID); err != nil {
		return err
	}
	if err := s.websiteRepo.Delete(ctx, websiteID); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete website")
	}
	s.invalidateCache(ctx, websiteID)
	return nil
}

// ListPages 查询网站的全部页面
func (s *Service) ListPages(ctx context.Context, userID, websiteID string) ([]*entity.Page, error) {
	if _, err := s.Get(ctx, userID, websiteID); err != nil {
		return nil, err
	}
	pages, err := s.pageRepo.ListByWebsite(ctx, websiteID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list pages")
	}
	return pages, nil
}

// GetPage 查询网站的单个页面
func (s *Service) GetPage(ctx context.Context, userID, websiteID, name string) (*entity.Page, error) {
	if _, err := s.Get(ctx, userID, websiteID); err != nil {
		return nil, err
	}
	page, err := s.pageRepo.GetByName(ctx, websiteID, name)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load page")
	}
	if page == nil {
		return nil, apperrors.ErrPageNotFound
	}
	return page, nil
}

// UpdatePage 覆盖写入页面内容
func (s *Service) UpdatePage(ctx context.Context, userID, websiteID, name, content string) (*entity.Page, error) {
	website, err := s.Get(ctx, userID, websiteID)
	if err != nil {
		return nil, err
	}

	page := entity.NewPage(websiteID, name, content)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.pageRepo.Upsert(txCtx, page); err != nil {
			return err
		}
		if !website.HasPage(page.Name) {
			return s.websiteRepo.UpdatePages(txCtx, websiteID, append(website.Pages, page.Name), website.Status)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePersistenceFailed, "failed to save page")
	}
	s.invalidateCache(ctx, websiteID)
	return page, nil
}

// FixPages 用页面表实际数据修正网站的页面清单。
// 页面清单与页面行不一致时（历史生成中断等），以页面行为准重建。
func (s *Service) FixPages(ctx context.Context, userID, websiteID string) (*entity.Website, error) {
	website, err := s.Get(ctx, userID, websiteID)
	if err != nil {
		return nil, err
	}

	names, err := s.pageRepo.ListNamesByWebsite(ctx, websiteID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list page names")
	}

	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			cleaned = append(cleaned, n)
		}
	}

	status := website.Status
	if status != entity.WebsiteStatusGenerating {
		status = entity.WebsiteStatusCompleted
	}

	if len(cleaned) == 0 {
		// 一个有效页面都没有时补建默认首页，而不是把网站判死
		logger.Info(ctx, "no valid pages found, creating default page", "website_id", websiteID)
		cleaned = []string{"index.html"}
		page := entity.NewPage(websiteID, "index.html", defaultPageContent)
		err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.pageRepo.Upsert(txCtx, page); err != nil {
				return err
			}
			return s.websiteRepo.UpdatePages(txCtx, websiteID, cleaned, status)
		})
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodePersistenceFailed, "failed to create default page")
		}
	} else if err := s.websiteRepo.UpdatePages(ctx, websiteID, cleaned, status); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to fix page list")
	}
	logger.Info(ctx, "website page list reconciled",
		"website_id", websiteID,
		"before", len(website.Pages),
		"after", len(cleaned),
	)

	website.Pages = cleaned
	website.Status = status
	s.invalidateCache(ctx, websiteID)
	return website, nil
}

func (s *Service) invalidateCache(ctx context.Context, websiteID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWebsite(ctx, websiteID); err != nil {
		logger.Warn(ctx, "failed to invalidate website cache", "error", err.Error())
	}
}
