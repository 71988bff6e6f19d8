package sitegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/domain/service"
	wfmodel "rapidsite-ai-api/internal/workflow/model"
	apperrors "rapidsite-ai-api/pkg/errors"
)

// ---- 公共测试替身 ----

type fakeTransactor struct{}

func (fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUsageRecorder struct {
	inputs []service.LLMUsageInput
}

func (r *fakeUsageRecorder) Record(_ context.Context, in service.LLMUsageInput) error {
	r.inputs = append(r.inputs, in)
	return nil
}

type fakeWebsiteRepo struct {
	websites map[string]*entity.Website
	nextID   int

	statusUpdates map[string]entity.WebsiteStatus
	takenSubs     map[string]bool
	allSubsTaken  bool
}

func newFakeWebsiteRepo() *fakeWebsiteRepo {
	return &fakeWebsiteRepo{
		websites:      make(map[string]*entity.Website),
		statusUpdates: make(map[string]entity.WebsiteStatus),
		takenSubs:     make(map[string]bool),
	}
}

func (r *fakeWebsiteRepo) Create(_ context.Context, website *entity.Website) error {
	r.nextID++
	website.ID = fmt.Sprintf("site-%d", r.nextID)
	r.websites[website.ID] = website
	return nil
}

func (r *fakeWebsiteRepo) GetByID(_ context.Context, id string) (*entity.Website, error) {
	return r.websites[id], nil
}

func (r *fakeWebsiteRepo) Update(_ context.Context, website *entity.Website) error {
	r.websites[website.ID] = website
	return nil
}

func (r *fakeWebsiteRepo) Delete(_ context.Context, id string) error {
	delete(r.websites, id)
	return nil
}

func (r *fakeWebsiteRepo) List(_ context.Context, _ *repository.WebsiteFilter, p repository.Pagination) (*repository.PagedResult[*entity.Website], error) {
	items := make([]*entity.Website, 0, len(r.websites))
	for _, w := range r.websites {
		items = append(items, w)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *fakeWebsiteRepo) UpdateStatus(_ context.Context, id string, status entity.WebsiteStatus) error {
	r.statusUpdates[id] = status
	if w, ok := r.websites[id]; ok {
		w.Status = status
	}
	return nil
}

func (r *fakeWebsiteRepo) UpdatePages(_ context.Context, id string, pages []string, status entity.WebsiteStatus) error {
	if w, ok := r.websites[id]; ok {
		w.Pages = pages
		w.Status = status
	}
	return nil
}

func (r *fakeWebsiteRepo) ExistsBySubdomain(_ context.Context, subdomain string) (bool, error) {
	if r.allSubsTaken {
		return true, nil
	}
	return r.takenSubs[subdomain], nil
}

type fakePageRepo struct {
	deletedWebsites []string
	created         []*entity.Page
}

func (r *fakePageRepo) Create(_ context.Context, page *entity.Page) error {
	r.created = append(r.created, page)
	return nil
}

func (r *fakePageRepo) CreateBatch(_ context.Context, pages []*entity.Page) error {
	r.created = append(r.created, pages...)
	return nil
}

func (r *fakePageRepo) GetByID(_ context.Context, _ string) (*entity.Page, error) { return nil, nil }

func (r *fakePageRepo) GetByName(_ context.Context, _, _ string) (*entity.Page, error) {
	return nil, nil
}

func (r *fakePageRepo) Update(_ context.Context, _ *entity.Page) error { return nil }

func (r *fakePageRepo) Upsert(_ context.Context, _ *entity.Page) error { return nil }

func (r *fakePageRepo) Delete(_ context.Context, _ string) error { return nil }

func (r *fakePageRepo) DeleteByWebsite(_ context.Context, websiteID string) error {
	r.deletedWebsites = append(r.deletedWebsites, websiteID)
	return nil
}

func (r *fakePageRepo) ListByWebsite(_ context.Context, _ string) ([]*entity.Page, error) {
	return r.created, nil
}

func (r *fakePageRepo) ListNamesByWebsite(_ context.Context, _ string) ([]string, error) {
	names := make([]string, 0, len(r.created))
	for _, p := range r.created {
		names = append(names, p.Name)
	}
	return names, nil
}

type fakeLock struct {
	acquireOK bool
	acquired  []string
	released  []string
}

func (l *fakeLock) Acquire(_ context.Context, websiteID string, _ time.Duration) (bool, error) {
	l.acquired = append(l.acquired, websiteID)
	return l.acquireOK, nil
}

func (l *fakeLock) Release(_ context.Context, websiteID string) error {
	l.released = append(l.released, websiteID)
	return nil
}

type stubSiteChain struct {
	msg    *schema.Message
	err    error
	inputs []*wfmodel.SiteGenerateInput
}

func (s *stubSiteChain) Invoke(_ context.Context, in *wfmodel.SiteGenerateInput) (*schema.Message, error) {
	s.inputs = append(s.inputs, in)
	return s.msg, s.err
}

type stubEnhanceChain struct {
	msg    *schema.Message
	err    error
	inputs []*wfmodel.EnhanceInput
}

func (s *stubEnhanceChain) Invoke(_ context.Context, in *wfmodel.EnhanceInput) (*schema.Message, error) {
	s.inputs = append(s.inputs, in)
	return s.msg, s.err
}

func assistantMessage(content string) *schema.Message {
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 800, TotalTokens: 920},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Generation: config.GenerationConfig{
			Enhance:  config.TaskParams{Temperature: 0.7, MaxTokens: 8000},
			Generate: config.TaskParams{Temperature: 0.7, MaxTokens: 8192},
			Chat:     config.TaskParams{Temperature: 0.7, MaxTokens: 2048},
			LockTTL:  5 * time.Minute,
		},
		Features: config.FeaturesConfig{
			PromptEnhancement: config.PromptEnhancementFeature{Enabled: true},
			GenerationLock:    config.GenerationLockFeature{Enabled: true},
		},
	}
}

func newTestGenerator(site *stubSiteChain, enhance *stubEnhanceChain) (*ExpressGenerator, *fakeWebsiteRepo, *fakePageRepo, *fakeLock) {
	websiteRepo := newFakeWebsiteRepo()
	pageRepo := &fakePageRepo{}
	lock := &fakeLock{acquireOK: true}
	g := &ExpressGenerator{
		siteChain:   site,
		websiteRepo: websiteRepo,
		pageRepo:    pageRepo,
		tx:          fakeTransactor{},
		lock:        lock,
		usage:       &fakeUsageRecorder{},
		cfg:         testConfig(),
	}
	if enhance != nil {
		g.enhanceChain = enhance
	}
	return g, websiteRepo, pageRepo, lock
}

// ---- 用例 ----

func TestGenerateNewWebsite(t *testing.T) {
	siteOut := "## index.html\n```html\n<html>home</html>\n```\n## about.html\n```html\n<html>about</html>\n```"
	site := &stubSiteChain{msg: assistantMessage(siteOut)}
	enhance := &stubEnhanceChain{msg: assistantMessage("A polished portfolio site with hero section")}
	g, websiteRepo, pageRepo, lock := newTestGenerator(site, enhance)

	result, err := g.Generate(context.Background(), &GenerateRequest{
		UserID:  "user-1",
		Name:    "My Portfolio",
		Prompt:  "make me a portfolio",
		Enhance: true,
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, entity.WebsiteStatusCompleted, result.Website.Status)
	assert.True(t, strings.HasPrefix(result.Website.Subdomain, "my-portfolio-"))
	assert.Equal(t, "A polished portfolio site with hero section", result.EnhancedPrompt)
	assert.Len(t, result.Pages, 2)
	assert.Equal(t, []string{"index.html", "about.html"}, []string(result.Website.Pages))

	// 生成链收到的是增强后的提示词
	require.Len(t, site.inputs, 1)
	assert.Equal(t, "A polished portfolio site with hero section", site.inputs[0].Prompt)

	// 页面先清后写
	require.Len(t, websiteRepo.websites, 1)
	assert.Equal(t, []string{result.Website.ID}, pageRepo.deletedWebsites)
	assert.Len(t, pageRepo.created, 2)

	// 锁取了也放了
	assert.Equal(t, []string{result.Website.ID}, lock.acquired)
	assert.Equal(t, []string{result.Website.ID}, lock.released)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	g, _, _, _ := newTestGenerator(&stubSiteChain{}, nil)

	_, err := g.Generate(context.Background(), &GenerateRequest{UserID: "user-1", Prompt: "   "})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
}

func TestGenerateEnhancementFailureFallsBack(t *testing.T) {
	site := &stubSiteChain{msg: assistantMessage("<html><body>ok</body></html>")}
	enhance := &stubEnhanceChain{err: errors.New("boom")}
	g, _, _, _ := newTestGenerator(site, enhance)

	result, err := g.Generate(context.Background(), &GenerateRequest{
		UserID:  "user-1",
		Prompt:  "a bakery site",
		Enhance: true,
	})

	require.NoError(t, err)
	assert.Empty(t, result.EnhancedPrompt)
	require.Len(t, site.inputs, 1)
	assert.Equal(t, "a bakery site", site.inputs[0].Prompt)
}

func TestGenerateEnhancementDisabled(t *testing.T) {
	// 功能开关关闭时即使请求要求增强也不执行
	site := &stubSiteChain{msg: assistantMessage("<html>x</html>")}
	enhance := &stubEnhanceChain{msg: assistantMessage("should not be used")}
	g, _, _, _ := newTestGenerator(site, enhance)
	g.cfg.Features.PromptEnhancement.Enabled = false

	result, err := g.Generate(context.Background(), &GenerateRequest{UserID: "user-1", Prompt: "plain", Enhance: true})

	require.NoError(t, err)
	assert.Empty(t, result.EnhancedPrompt)
	assert.Empty(t, enhance.inputs)
}

func TestGenerateEnhancementDeclinedByRequest(t *testing.T) {
	// 功能开关打开但请求方没有要求增强，直接用原始提示词
	site := &stubSiteChain{msg: assistantMessage("<html>x</html>")}
	enhance := &stubEnhanceChain{msg: assistantMessage("should not be used")}
	g, _, _, _ := newTestGenerator(site, enhance)

	result, err := g.Generate(context.Background(), &GenerateRequest{UserID: "user-1", Prompt: "as is"})

	require.NoError(t, err)
	assert.Empty(t, result.EnhancedPrompt)
	assert.Empty(t, enhance.inputs)
	require.Len(t, site.inputs, 1)
	assert.Equal(t, "as is", site.inputs[0].Prompt)
}

func TestGenerateLockBusy(t *testing.T) {
	site := &stubSiteChain{msg: assistantMessage("<html>x</html>")}
	g, _, _, lock := newTestGenerator(site, nil)
	lock.acquireOK = false

	_, err := g.Generate(context.Background(), &GenerateRequest{UserID: "user-1", Prompt: "busy"})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGenerationBusy, apperrors.AsAppError(err).Code)
	assert.Empty(t, site.inputs)
	assert.Empty(t, lock.released)
}

func TestRegenerateLockBusyLeavesStatusUntouched(t *testing.T) {
	// 没抢到锁的重生成请求不能动网站状态
	site := &stubSiteChain{msg: assistantMessage("<html>x</html>")}
	g, websiteRepo, _, lock := newTestGenerator(site, nil)
	lock.acquireOK = false

	existing := entity.NewWebsite("user-1", "Live", "live-site-1234", "p")
	existing.ID = "www-1"
	existing.MarkCompleted([]string{"index.html"})
	websiteRepo.websites[existing.ID] = existing

	_, err := g.Generate(context.Background(), &GenerateRequest{
		UserID:    "user-1",
		Prompt:    "again",
		WebsiteID: existing.ID,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeGenerationBusy, apperrors.AsAppError(err).Code)
	assert.Empty(t, websiteRepo.statusUpdates)
	assert.Equal(t, entity.WebsiteStatusCompleted, existing.Status)
}

func TestGenerateModelFailureMarksFailed(t *testing.T) {
	site := &stubSiteChain{err: errors.New("429 too many requests")}
	g, websiteRepo, _, _ := newTestGenerator(site, nil)
	g.cfg.Features.PromptEnhancement.Enabled = false

	_, err := g.Generate(context.Background(), &GenerateRequest{UserID: "user-1", Prompt: "doomed"})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLLMRateLimited, apperrors.AsAppError(err).Code)

	require.Len(t, websiteRepo.websites, 1)
	for id := range websiteRepo.websites {
		assert.Equal(t, entity.WebsiteStatusFailed, websiteRepo.statusUpdates[id])
	}
}

func TestGenerateFallbackTierStillCompletes(t *testing.T) {
	// 模型没有产出可用 HTML 时落兜底错误页，网站仍然是 completed
	site := &stubSiteChain{msg: assistantMessage("抱歉，我做不到。")}
	g, _, pageRepo, _ := newTestGenerator(site, nil)
	g.cfg.Features.PromptEnhancement.Enabled = false

	result, err := g.Generate(context.Background(), &GenerateRequest{UserID: "user-1", Prompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "fallback", string(result.Tier))
	assert.Equal(t, entity.WebsiteStatusCompleted, result.Website.Status)
	require.Len(t, pageRepo.created, 1)
	assert.Equal(t, "index.html", pageRepo.created[0].Name)
}

func TestRegenerateExistingWebsite(t *testing.T) {
	site := &stubSiteChain{msg: assistantMessage("<html>regen</html>")}
	g, websiteRepo, pageRepo, _ := newTestGenerator(site, nil)
	g.cfg.Features.PromptEnhancement.Enabled = false

	existing := entity.NewWebsite("user-1", "Old", "old-site-1234", "old prompt")
	existing.ID = "www-9"
	existing.MarkCompleted([]string{"index.html", "about.html"})
	websiteRepo.websites[existing.ID] = existing

	result, err := g.Generate(context.Background(), &GenerateRequest{
		UserID:    "user-1",
		Prompt:    "make it darker",
		WebsiteID: existing.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.Website.ID)
	assert.Equal(t, "old-site-1234", result.Website.Subdomain)
	assert.Equal(t, []string{existing.ID}, pageRepo.deletedWebsites)
	assert.Equal(t, []string{"index.html"}, []string(result.Website.Pages))
}

func TestRegenerateNotFound(t *testing.T) {
	g, _, _, _ := newTestGenerator(&stubSiteChain{}, nil)

	_, err := g.Generate(context.Background(), &GenerateRequest{
		UserID:    "user-1",
		Prompt:    "x",
		WebsiteID: "missing",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeWebsiteNotFound, apperrors.AsAppError(err).Code)
}

func TestRegenerateForbidden(t *testing.T) {
	g, websiteRepo, _, _ := newTestGenerator(&stubSiteChain{}, nil)
	other := entity.NewWebsite("user-2", "Theirs", "theirs-1", "p")
	other.ID = "www-5"
	websiteRepo.websites[other.ID] = other

	_, err := g.Generate(context.Background(), &GenerateRequest{
		UserID:    "user-1",
		Prompt:    "x",
		WebsiteID: other.ID,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestGenerateSubdomainAllTaken(t *testing.T) {
	// 所有候选都报占用时仍要给出一个子域名，不能卡死
	site := &stubSiteChain{msg: assistantMessage("<html>x</html>")}
	g, websiteRepo, _, _ := newTestGenerator(site, nil)
	g.cfg.Features.PromptEnhancement.Enabled = false
	websiteRepo.allSubsTaken = true

	result, err := g.Generate(context.Background(), &GenerateRequest{
		UserID: "user-1",
		Name:   "Cafe",
		Prompt: "a cafe site",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Website.Subdomain)
}

func TestGenerateRecordsUsage(t *testing.T) {
	site := &stubSiteChain{msg: assistantMessage("<html>x</html>")}
	enhance := &stubEnhanceChain{msg: assistantMessage("better prompt")}
	g, _, _, _ := newTestGenerator(site, enhance)
	rec := &fakeUsageRecorder{}
	g.usage = rec

	_, err := g.Generate(context.Background(), &GenerateRequest{
		UserID:   "user-1",
		Prompt:   "track me",
		Enhance:  true,
		Provider: "openai",
		Model:    "gpt-4o",
	})

	require.NoError(t, err)
	require.Len(t, rec.inputs, 2)
	assert.Equal(t, "prompt_enhance", rec.inputs[0].Workflow)
	assert.Equal(t, "site_generate", rec.inputs[1].Workflow)
	assert.Equal(t, 120, rec.inputs[1].PromptTokens)
	assert.Equal(t, 800, rec.inputs[1].CompletionTokens)
	assert.Equal(t, "openai", rec.inputs[1].Provider)
}
