// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strings"

	"rapidsite-ai-api/internal/application/sitegen"
	appwebsite "rapidsite-ai-api/internal/application/website"
	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/interfaces/http/dto"
	"rapidsite-ai-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebsiteHandler 网站管理处理器
type WebsiteHandler struct {
	cfg       *config.Config
	service   *appwebsite.Service
	generator *sitegen.ExpressGenerator
	chat      *sitegen.DesignChatService
}

// NewWebsiteHandler 创建网站管理处理器
func NewWebsiteHandler(
	cfg *config.Config,
	service *appwebsite.Service,
	generator *sitegen.ExpressGenerator,
	chat *sitegen.DesignChatService,
) *WebsiteHandler {
	return &WebsiteHandler{
		cfg:       cfg,
		service:   service,
		generator: generator,
		chat:      chat,
	}
}

func (h *WebsiteHandler) siteDomain() string {
	return h.cfg.Generation.SiteDomain
}

// Generate 快速生成网站
// @Summary 从一句话需求生成网站
// @Description 增强提示词、调用模型生成多页面站点并持久化
// @Tags Websites
// @Accept json
// @Produce json
// @Param body body dto.GenerateWebsiteRequest true "生成请求"
// @Success 201 {object} dto.Response[dto.GenerateWebsiteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/websites/generate [post]
func (h *WebsiteHandler) Generate(c *gin.Context) {
	h.generate(c, "")
}

// Regenerate 重新生成既有网站
// @Summary 重新生成网站
// @Tags Websites
// @Accept json
// @Produce json
// @Param wid path string true "网站 ID"
// @Param body body dto.GenerateWebsiteRequest true "生成请求"
// @Success 200 {object} dto.Response[dto.GenerateWebsiteResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/websites/{wid}/generate [post]
func (h *WebsiteHandler) Regenerate(c *gin.Context) {
	h.generate(c, dto.BindWebsiteID(c))
}

func (h *WebsiteHandler) generate(c *gin.Context, websiteID string) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	var req dto.GenerateWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	// 携带设计会话时复用其累积的项目简报
	var brief *entity.ProjectBrief
	if strings.TrimSpace(req.SessionID) != "" {
		session, err := h.chat.GetSession(ctx, userID, req.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		brief = session.Brief
	}

	result, err := h.generator.Generate(ctx, &sitegen.GenerateRequest{
		UserID:    userID,
		Name:      req.Name,
		Prompt:    req.Prompt,
		Brief:     brief,
		Enhance:   req.EnhanceRequested(),
		WebsiteID: websiteID,
		Provider:  provider,
		Model:     model,
	})
	if err != nil {
		logger.Error(ctx, "website generation failed", err)
		respondError(c, err)
		return
	}

	resp := dto.ToGenerateWebsiteResponse(result, h.siteDomain())
	if websiteID == "" {
		dto.Created(c, resp)
		return
	}
	dto.Success(c, resp)
}

// Get 获取网站详情
// @Summary 获取网站详情
// @Tags Websites
// @Produce json
// @Param wid path string true "网站 ID"
// @Success 200 {object} dto.Response[dto.WebsiteResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/websites/{wid} [get]
func (h *WebsiteHandler) Get(c *gin.Context) {
	website, err := h.service.Get(c.Request.Context(), currentUserID(c), dto.BindWebsiteID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToWebsiteResponse(website, h.siteDomain()))
}

// List 获取网站列表
// @Summary 获取当前用户的网站列表
// @Tags Websites
// @Produce json
// @Param status query string false "状态过滤" Enums(generating, completed, failed)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.WebsiteListResponse]
// @Router /v1/websites [get]
func (h *WebsiteHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)
	status := entity.WebsiteStatus(c.Query("status"))

	result, err := h.service.List(ctx, currentUserID(c), status, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list websites", err)
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.ToWebsiteListResponse(result.Items, h.siteDomain()), dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// Rename 重命名网站
// @Summary 重命名网站
// @Tags Websites
// @Accept json
// @Produce json
// @Param wid path string true "网站 ID"
// @Param body body dto.RenameWebsiteRequest true "新名称"
// @Success 200 {object} dto.Response[dto.WebsiteResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/websites/{wid} [put]
func (h *WebsiteHandler) Rename(c *gin.Context) {
	var req dto.RenameWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	website, err := h.service.Rename(c.Request.Context(), currentUserID(c), dto.BindWebsiteID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToWebsiteResponse(website, h.siteDomain()))
}

// Delete 删除网站
// @Summary 删除网站及其全部页面
// @Tags Websites
// @Param wid path string true "网站 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/websites/{wid} [delete]
func (h *WebsiteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUserID(c), dto.BindWebsiteID(c)); err != nil {
		respondError(c, err)
		return
	}
	dto.NoContent(c)
}

// FixPages 修正页面清单
// @Summary 用页面表实际数据修正网站页面清单
// @Tags Websites
// @Produce json
// @Param wid path string true "网站 ID"
// @Success 200 {object} dto.Response[dto.WebsiteResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/websites/{wid}/fix-pages [post]
func (h *WebsiteHandler) FixPages(c *gin.Context) {
	website, err := h.service.FixPages(c.Request.Context(), currentUserID(c), dto.BindWebsiteID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToWebsiteResponse(website, h.siteDomain()))
}

// ListPages 获取页面列表
// @Summary 获取网站页面列表
// @Tags Websites
// @Produce json
// @Param wid path string true "网站 ID"
// @Success 200 {object} dto.Response[dto.PageListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/websites/{wid}/pages [get]
func (h *WebsiteHandler) ListPages(c *gin.Context) {
	pages, err := h.service.ListPages(c.Request.Context(), currentUserID(c), dto.BindWebsiteID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToPageListResponse(pages))
}

// GetPage 获取单个页面
// @Summary 获取页面内容
// @Tags Websites
// @Produce json
// @Param wid path string true "网站 ID"
// @Param name path string true "页面文件名"
// @Success 200 {object} dto.Response[dto.PageResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/websites/{wid}/pages/{name} [get]
func (h *WebsiteHandler) GetPage(c *gin.Context) {
	page, err := h.service.GetPage(c.Request.Context(), currentUserID(c), dto.BindWebsiteID(c), dto.BindPageName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToPageResponse(page, true))
}

// UpdatePage 覆盖写入页面内容
// @Summary 更新页面内容
// @Tags Websites
// @Accept json
// @Produce json
// @Param wid path string true "网站 ID"
// @Param name path string true "页面文件名"
// @Param body body dto.UpdatePageRequest true "页面内容"
// @Success 200 {object} dto.Response[dto.PageResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/websites/{wid}/pages/{name} [put]
func (h *WebsiteHandler) UpdatePage(c *gin.Context) {
	var req dto.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	page, err := h.service.UpdatePage(c.Request.Context(), currentUserID(c), dto.BindWebsiteID(c), dto.BindPageName(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToPageResponse(page, true))
}
