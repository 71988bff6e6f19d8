// Package sitegen 实现网站生成的应用层编排
package sitegen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"rapidsite-ai-api/internal/application/sitegen/parse"
	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/domain/service"
	workflowchain "rapidsite-ai-api/internal/workflow/chain"
	wfmodel "rapidsite-ai-api/internal/workflow/model"
	wfnode "rapidsite-ai-api/internal/workflow/node"
	workflowport "rapidsite-ai-api/internal/workflow/port"
	apperrors "rapidsite-ai-api/pkg/errors"
	"rapidsite-ai-api/pkg/logger"
	"rapidsite-ai-api/pkg/metrics"
)

// GenerationLocker 网站生成互斥锁依赖
type GenerationLocker interface {
	Acquire(ctx context.Context, websiteID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, websiteID string) error
}

// CacheInvalidator 网站状态变更后的读缓存失效依赖
type CacheInvalidator interface {
	InvalidateWebsite(ctx context.Context, websiteID string) error
}

type siteInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.SiteGenerateInput) (*schema.Message, error)
}

type enhanceInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.EnhanceInput) (*schema.Message, error)
}

// GenerateRequest 一次网站生成请求
type GenerateRequest struct {
	UserID string
	Name   string
	Prompt string
	Brief  *entity.ProjectBrief

	// Enhance 请求方是否要求先做提示词增强，与功能开关取与
	Enhance bool

	// WebsiteID 非空表示对既有网站重新生成
	WebsiteID string

	Provider string
	Model    string
}

// GenerateResult 生成结果
type GenerateResult struct {
	Website        *entity.Website
	Pages          []*entity.Page
	Tier           parse.Tier
	EnhancedPrompt string
}

// ExpressGenerator 网站生成编排器
// 流程：增强（可选，失败不致命）-> 生成 -> 抽取 -> 物化 -> 持久化
type ExpressGenerator struct {
	siteChain    siteInvoker
	enhanceChain enhanceInvoker

	websiteRepo repository.WebsiteRepository
	pageRepo    repository.PageRepository
	tx          repository.Transactor
	lock        GenerationLocker
	cache       CacheInvalidator
	usage       service.LLMUsageRecorder

	cfg *config.Config
}

// NewExpressGenerator 创建网站生成编排器
func NewExpressGenerator(
	factory workflowport.ChatModelFactory,
	websiteRepo repository.WebsiteRepository,
	pageRepo repository.PageRepository,
	tx repository.Transactor,
	lock GenerationLocker,
	cache CacheInvalidator,
	usage service.LLMUsageRecorder,
	cfg *config.Config,
) *ExpressGenerator {
	return &ExpressGenerator{
		siteChain:    workflowchain.NewSiteGenerationChain(factory),
		enhanceChain: workflowchain.NewPromptEnhanceChain(factory),
		websiteRepo:  websiteRepo,
		pageRepo:     pageRepo,
		tx:           tx,
		lock:         lock,
		cache:        cache,
		usage:        usage,
		cfg:          cfg,
	}
}

// Generate 执行一次完整的网站生成
func (g *ExpressGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if g == nil || g.siteChain == nil {
		return nil, fmt.Errorf("site generation workflow not configured")
	}
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "prompt is required")
	}

	website, err := g.prepareWebsite(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithContext(ctx, logger.WebsiteIDKey, website.ID)

	if g.lockEnabled() {
		ok, err := g.lock.Acquire(ctx, website.ID, g.cfg.Generation.LockTTL)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to acquire generation lock")
		}
		if !ok {
			return nil, apperrors.ErrGenerationBusy
		}
		defer func() {
			if err := g.lock.Release(ctx, website.ID); err != nil {
				logger.Warn(ctx, "failed to release generation lock", "error", err.Error())
			}
		}()
	}

	// 既有网站拿到锁之后才置为生成中，未拿到锁的请求不改动记录
	if strings.TrimSpace(req.WebsiteID) != "" {
		if err := g.websiteRepo.UpdateStatus(ctx, website.ID, entity.WebsiteStatusGenerating); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to mark website generating")
		}
		website.Status = entity.WebsiteStatusGenerating
		g.invalidateCache(ctx, website.ID)
	}

	metrics.ActiveGenerations.Inc()
	defer metrics.ActiveGenerations.Dec()
	startedAt := time.Now()

	// 阶段一：提示词增强，失败回退到原始提示词
	prompt := strings.TrimSpace(req.Prompt)
	enhanced := g.enhancePrompt(ctx, req, prompt)
	if enhanced != "" && enhanced != prompt {
		website.EnhancedPrompt = enhanced
		prompt = enhanced
	}

	// 阶段二：站点生成，失败即整体失败
	genStart := time.Now()
	outMsg, err := g.siteChain.Invoke(ctx, &wfmodel.SiteGenerateInput{
		Prompt:      prompt,
		Brief:       marshalBrief(req.Brief),
		Provider:    req.Provider,
		Model:       req.Model,
		Temperature: ptrFloat32(float32(g.cfg.Generation.Generate.Temperature)),
		MaxTokens:   ptrInt(g.cfg.Generation.Generate.MaxTokens),
	})
	metrics.SiteGenerationDuration.WithLabelValues("generate").Observe(time.Since(genStart).Seconds())
	if err != nil {
		g.markFailed(ctx, website.ID)
		metrics.SiteGenerationTotal.WithLabelValues("failed").Inc()
		return nil, wfnode.ClassifyModelError(err)
	}
	g.recordUsage(ctx, req, "site_generate", outMsg, time.Since(genStart))

	// 阶段三：抽取结构化块，站点正文随残余文本进入物化
	extracted := parse.Extract(outMsg.Content, parse.DefaultSpecs())
	for _, dup := range extracted.Duplicates {
		logger.Warn(ctx, "duplicate structured block dropped", "block_type", string(dup.Type))
	}
	for typ, blk := range extracted.Blocks {
		metrics.BlockExtractTotal.WithLabelValues(string(typ)).Inc()
		if blk.PossiblyTruncated {
			logger.Warn(ctx, "structured block possibly truncated", "block_type", string(typ))
		}
	}

	// 阶段四：物化为站点文件
	files, tier := parse.MaterializeFiles(extracted.Residual)
	metrics.MaterializeTierTotal.WithLabelValues(string(tier)).Inc()
	metrics.SitePageCount.Observe(float64(len(files)))
	if tier == parse.TierFallback {
		logger.Warn(ctx, "materialization fell back to error page")
	}
	if len(files) == 0 {
		g.markFailed(ctx, website.ID)
		metrics.SiteGenerationTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.New(apperrors.CodeMaterializeFailed, "no files materialized from model output")
	}

	// 阶段五：持久化，页面全部落库后网站才置为 completed
	pages := make([]*entity.Page, 0, len(files))
	names := make([]string, 0, len(files))
	for _, f := range files {
		pages = append(pages, entity.NewPage(website.ID, f.Name, f.Content))
		names = append(names, f.Name)
	}

	err = g.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := g.pageRepo.DeleteByWebsite(txCtx, website.ID); err != nil {
			return err
		}
		if err := g.pageRepo.CreateBatch(txCtx, pages); err != nil {
			return err
		}
		website.MarkCompleted(names)
		website.Brief = req.Brief
		return g.websiteRepo.Update(txCtx, website)
	})
	if err != nil {
		g.markFailed(ctx, website.ID)
		metrics.SiteGenerationTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodePersistenceFailed, "failed to persist generated site")
	}

	g.invalidateCache(ctx, website.ID)
	metrics.SiteGenerationTotal.WithLabelValues("completed").Inc()
	metrics.SiteGenerationDuration.WithLabelValues("total").Observe(time.Since(startedAt).Seconds())
	logger.Info(ctx, "website generation completed",
		"page_count", len(pages),
		"tier", string(tier),
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)

	return &GenerateResult{
		Website:        website,
		Pages:          pages,
		Tier:           tier,
		EnhancedPrompt: website.EnhancedPrompt,
	}, nil
}

// prepareWebsite 创建新网站记录或加载既有记录并校验归属
func (g *ExpressGenerator) prepareWebsite(ctx context.Context, req *GenerateRequest) (*entity.Website, error) {
	if strings.TrimSpace(req.WebsiteID) != "" {
		website, err := g.websiteRepo.GetByID(ctx, req.WebsiteID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load website")
		}
		if website == nil {
			return nil, apperrors.ErrWebsiteNotFound
		}
		if website.UserID != req.UserID {
			return nil, apperrors.ErrForbidden
		}
		return website, nil
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Untitled Site"
	}
	subdomain := g.newSubdomain(ctx, name)
	website := entity.NewWebsite(req.UserID, name, subdomain, req.Prompt)
	website.Brief = req.Brief
	if err := g.websiteRepo.Create(ctx, website); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create website")
	}
	return website, nil
}

// newSubdomain 生成未被占用的子域名
func (g *ExpressGenerator) newSubdomain(ctx context.Context, name string) string {
	if slug := SlugifyName(name); slug != "" {
		candidate := fmt.Sprintf("%s-%s", slug, RandomSubdomain())
		if taken, err := g.websiteRepo.ExistsBySubdomain(ctx, candidate); err == nil && !taken {
			return candidate
		}
	}
	for i := 0; i < 5; i++ {
		candidate := RandomSubdomain()
		if taken, err := g.websiteRepo.ExistsBySubdomain(ctx, candidate); err == nil && !taken {
			return candidate
		}
	}
	return RandomSubdomain()
}

// enhancePrompt 提示词增强阶段，任何失败都回退到原始提示词。
// 只有请求方要求且功能开关打开时才执行。
func (g *ExpressGenerator) enhancePrompt(ctx context.Context, req *GenerateRequest, prompt string) string {
	if g.enhanceChain == nil || !req.Enhance || !g.cfg.Features.PromptEnhancement.Enabled {
		return ""
	}

	start := time.Now()
	outMsg, err := g.enhanceChain.Invoke(ctx, &wfmodel.EnhanceInput{
		Prompt:      prompt,
		Provider:    req.Provider,
		Model:       req.Model,
		Temperature: ptrFloat32(float32(g.cfg.Generation.Enhance.Temperature)),
		MaxTokens:   ptrInt(g.cfg.Generation.Enhance.MaxTokens),
	})
	metrics.SiteGenerationDuration.WithLabelValues("enhance").Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Warn(ctx, "prompt enhancement failed, using original prompt",
			"kind", string(wfnode.ModelErrorKindOf(err)),
			"error", err.Error(),
		)
		return ""
	}
	g.recordUsage(ctx, req, "prompt_enhance", outMsg, time.Since(start))
	return strings.TrimSpace(outMsg.Content)
}

// markFailed 尽力把网站置为失败态
func (g *ExpressGenerator) markFailed(ctx context.Context, websiteID string) {
	if err := g.websiteRepo.UpdateStatus(ctx, websiteID, entity.WebsiteStatusFailed); err != nil {
		logger.Error(ctx, "failed to mark website failed", err)
	}
	g.invalidateCache(ctx, websiteID)
}

func (g *ExpressGenerator) invalidateCache(ctx context.Context, websiteID string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.InvalidateWebsite(ctx, websiteID); err != nil {
		logger.Warn(ctx, "failed to invalidate website cache", "error", err.Error())
	}
}

func (g *ExpressGenerator) recordUsage(ctx context.Context, req *GenerateRequest, workflow string, msg *schema.Message, elapsed time.Duration) {
	if g.usage == nil || msg == nil {
		return
	}
	in := service.LLMUsageInput{
		UserID:     req.UserID,
		Workflow:   workflow,
		Provider:   strings.TrimSpace(req.Provider),
		Model:      strings.TrimSpace(req.Model),
		DurationMs: int(elapsed.Milliseconds()),
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		in.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		in.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}
	if err := g.usage.Record(ctx, in); err != nil {
		logger.Warn(ctx, "failed to record llm usage", "error", err.Error())
	}
}

func (g *ExpressGenerator) lockEnabled() bool {
	return g.lock != nil && g.cfg.Features.GenerationLock.Enabled
}

// marshalBrief 把项目简报序列化进提示词
func marshalBrief(brief *entity.ProjectBrief) string {
	if brief == nil {
		return ""
	}
	b, err := json.Marshal(brief)
	if err != nil {
		return ""
	}
	return string(b)
}

func ptrFloat32(f float32) *float32 { return &f }

func ptrInt(i int) *int { return &i }
