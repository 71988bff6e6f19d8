package website

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	apperrors "rapidsite-ai-api/pkg/errors"
)

type memTransactor struct{}

func (memTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memWebsiteRepo struct {
	websites map[string]*entity.Website
	deleted  []string
}

func newMemWebsiteRepo(websites ...*entity.Website) *memWebsiteRepo {
	r := &memWebsiteRepo{websites: make(map[string]*entity.Website)}
	for _, w := range websites {
		r.websites[w.ID] = w
	}
	return r
}

func (r *memWebsiteRepo) Create(_ context.Context, w *entity.Website) error {
	r.websites[w.ID] = w
	return nil
}

func (r *memWebsiteRepo) GetByID(_ context.Context, id string) (*entity.Website, error) {
	return r.websites[id], nil
}

func (r *memWebsiteRepo) Update(_ context.Context, w *entity.Website) error {
	r.websites[w.ID] = w
	return nil
}

func (r *memWebsiteRepo) Delete(_ context.Context, id string) error {
	delete(r.websites, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memWebsiteRepo) List(_ context.Context, filter *repository.WebsiteFilter, p repository.Pagination) (*repository.PagedResult[*entity.Website], error) {
	var items []*entity.Website
	for _, w := range r.websites {
		if filter != nil && filter.UserID != "" && w.UserID != filter.UserID {
			continue
		}
		if filter != nil && filter.Status != "" && w.Status != filter.Status {
			continue
		}
		items = append(items, w)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memWebsiteRepo) UpdateStatus(_ context.Context, id string, status entity.WebsiteStatus) error {
	if w, ok := r.websites[id]; ok {
		w.Status = status
	}
	return nil
}

func (r *memWebsiteRepo) UpdatePages(_ context.Context, id string, pages []string, status entity.WebsiteStatus) error {
	if w, ok := r.websites[id]; ok {
		w.Pages = pages
		w.Status = status
	}
	return nil
}

func (r *memWebsiteRepo) ExistsBySubdomain(_ context.Context, subdomain string) (bool, error) {
	for _, w := range r.websites {
		if w.Subdomain == subdomain {
			return true, nil
		}
	}
	return false, nil
}

type memPageRepo struct {
	pages    map[string]*entity.Page // key: websiteID + "/" + name
	upserted []*entity.Page
}

func newMemPageRepo(pages ...*entity.Page) *memPageRepo {
	r := &memPageRepo{pages: make(map[string]*entity.Page)}
	for _, p := range pages {
		r.pages[p.WebsiteID+"/"+p.Name] = p
	}
	return r
}

func (r *memPageRepo) Create(_ context.Context, p *entity.Page) error {
	r.pages[p.WebsiteID+"/"+p.Name] = p
	return nil
}

func (r *memPageRepo) CreateBatch(ctx context.Context, pages []*entity.Page) error {
	for _, p := range pages {
		if err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *memPageRepo) GetByID(_ context.Context, _ string) (*entity.Page, error) { return nil, nil }

func (r *memPageRepo) GetByName(_ context.Context, websiteID, name string) (*entity.Page, error) {
	return r.pages[websiteID+"/"+name], nil
}

func (r *memPageRepo) Update(_ context.Context, _ *entity.Page) error { return nil }

func (r *memPageRepo) Upsert(_ context.Context, p *entity.Page) error {
	r.pages[p.WebsiteID+"/"+p.Name] = p
	r.upserted = append(r.upserted, p)
	return nil
}

func (r *memPageRepo) Delete(_ context.Context, _ string) error { return nil }

func (r *memPageRepo) DeleteByWebsite(_ context.Context, websiteID string) error {
	for k, p := range r.pages {
		if p.WebsiteID == websiteID {
			delete(r.pages, k)
		}
	}
	return nil
}

func (r *memPageRepo) ListByWebsite(_ context.Context, websiteID string) ([]*entity.Page, error) {
	var out []*entity.Page
	for _, p := range r.pages {
		if p.WebsiteID == websiteID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPageRepo) ListNamesByWebsite(ctx context.Context, websiteID string) ([]string, error) {
	pages, _ := r.ListByWebsite(ctx, websiteID)
	names := make([]string, 0, len(pages))
	for _, p := range pages {
		names = append(names, p.Name)
	}
	return names, nil
}

func newTestService(websiteRepo *memWebsiteRepo, pageRepo *memPageRepo) *Service {
	return NewService(websiteRepo, pageRepo, memTransactor{}, nil)
}

func seedWebsite(id, userID string) *entity.Website {
	w := entity.NewWebsite(userID, "Site "+id, "sub-"+id, "prompt")
	w.ID = id
	return w
}

func TestGetOwnership(t *testing.T) {
	w := seedWebsite("w1", "user-1")
	svc := newTestService(newMemWebsiteRepo(w), newMemPageRepo())

	got, err := svc.Get(context.Background(), "user-1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", got.ID)

	_, err = svc.Get(context.Background(), "user-2", "w1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)

	_, err = svc.Get(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeWebsiteNotFound, apperrors.AsAppError(err).Code)
}

func TestRename(t *testing.T) {
	w := seedWebsite("w1", "user-1")
	svc := newTestService(newMemWebsiteRepo(w), newMemPageRepo())

	got, err := svc.Rename(context.Background(), "user-1", "w1", "  New Name  ")
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)

	_, err = svc.Rename(context.Background(), "user-1", "w1", "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
}

func TestDelete(t *testing.T) {
	w := seedWebsite("w1", "user-1")
	repo := newMemWebsiteRepo(w)
	svc := newTestService(repo, newMemPageRepo())

	require.NoError(t, svc.Delete(context.Background(), "user-1", "w1"))
	assert.Equal(t, []string{"w1"}, repo.deleted)

	err := svc.Delete(context.Background(), "user-1", "w1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeWebsiteNotFound, apperrors.AsAppError(err).Code)
}

func TestGetPage(t *testing.T) {
	w := seedWebsite("w1", "user-1")
	page := entity.NewPage("w1", "index.html", "<html>x</html>")
	svc := newTestService(newMemWebsiteRepo(w), newMemPageRepo(page))

	got, err := svc.GetPage(context.Background(), "user-1", "w1", "index.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>x</html>", got.Content)

	_, err = svc.GetPage(context.Background(), "user-1", "w1", "missing.html")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePageNotFound, apperrors.AsAppError(err).Code)
}

func TestUpdatePageAppendsToManifest(t *testing.T) {
	w := seedWebsite("w1", "user-1")
	w.MarkCompleted([]string{"index.html"})
	repo := newMemWebsiteRepo(w)
	pageRepo := newMemPageRepo()
	svc := newTestService(repo, pageRepo)

	_, err := svc.UpdatePage(context.Background(), "user-1", "w1", "about.html", "<html>about</html>")
	require.NoError(t, err)

	require.Len(t, pageRepo.upserted, 1)
	assert.Equal(t, []string{"index.html", "about.html"}, []string(repo.websites["w1"].Pages))
}

func TestUpdatePageExistingNameKeepsManifest(t *testing.T) {
	w := seedWebsite("w1", "user-1")
	w.MarkCompleted([]string{"index.html"})
	repo := newMemWebsiteRepo(w)
	svc := newTestService(repo, newMemPageRepo())

	_, err := svc.UpdatePage(context.Background(), "user-1", "w1", "index.html", "<html>v2</html>")
	require.NoError(t, err)

	assert.Equal(t, []string{"index.html"}, []string(repo.websites["w1"].Pages))
}

func TestFixPagesRebuildsManifest(t *testing.T) {
	w := seedWebsite("w1", "user-1")
	w.MarkCompleted([]string{"index.html", "ghost.html"})
	repo := newMemWebsiteRepo(w)
	pageRepo := newMemPageRepo(entity.NewPage("w1", "index.html", "<html>x</html>"))
	svc := newTestService(repo, pageRepo)

	got, err := svc.FixPages(context.Background(), "user-1", "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, []string(got.Pages))
	assert.Equal(t, entity.WebsiteStatusCompleted, got.Status)
}

func TestFixPagesNoPagesCreatesDefault(t *testing.T) {
	// 页面表空了也不判死网站：补建默认 index.html 并写回清单
	w := seedWebsite("w1", "user-1")
	w.MarkCompleted([]string{""})
	repo := newMemWebsiteRepo(w)
	pageRepo := newMemPageRepo()
	svc := newTestService(repo, pageRepo)

	got, err := svc.FixPages(context.Background(), "user-1", "w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, []string(got.Pages))
	assert.Equal(t, entity.WebsiteStatusCompleted, got.Status)

	require.Len(t, pageRepo.upserted, 1)
	assert.Equal(t, "index.html", pageRepo.upserted[0].Name)
	assert.Contains(t, pageRepo.upserted[0].Content, "Welcome to your website")
}

func TestFixPagesKeepsGeneratingStatus(t *testing.T) {
	// 生成中的网站不因修正被提前置为 completed
	w := seedWebsite("w1", "user-1")
	repo := newMemWebsiteRepo(w)
	pageRepo := newMemPageRepo(entity.NewPage("w1", "index.html", "<html>x</html>"))
	svc := newTestService(repo, pageRepo)

	got, err := svc.FixPages(context.Background(), "user-1", "w1")
	require.NoError(t, err)
	assert.Equal(t, entity.WebsiteStatusGenerating, got.Status)
}

func TestListFiltersByStatus(t *testing.T) {
	w1 := seedWebsite("w1", "user-1")
	w1.MarkCompleted([]string{"index.html"})
	w2 := seedWebsite("w2", "user-1")
	svc := newTestService(newMemWebsiteRepo(w1, w2), newMemPageRepo())

	result, err := svc.List(context.Background(), "user-1", entity.WebsiteStatusCompleted, repository.NewPagination(1, 20))
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "w1", result.Items[0].ID)
}
