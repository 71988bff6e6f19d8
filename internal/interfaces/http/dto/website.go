// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"rapidsite-ai-api/internal/application/sitegen"
	"rapidsite-ai-api/internal/domain/entity"
)

// GenerateWebsiteRequest 网站生成请求
type GenerateWebsiteRequest struct {
	Name   string `json:"name" binding:"omitempty,max=128"`
	Prompt string `json:"prompt" binding:"required,max=8000"`

	// Enhance 是否先做提示词增强，缺省为开启
	Enhance *bool `json:"enhance,omitempty"`

	// SessionID 可选，携带设计对话会话以复用其项目简报
	SessionID string `json:"session_id,omitempty" binding:"omitempty,uuid"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// EnhanceRequested 解析增强开关，未传视为开启
func (r *GenerateWebsiteRequest) EnhanceRequested() bool {
	return r.Enhance == nil || *r.Enhance
}

// RenameWebsiteRequest 网站重命名请求
type RenameWebsiteRequest struct {
	Name string `json:"name" binding:"required,max=128"`
}

// UpdatePageRequest 页面内容更新请求
type UpdatePageRequest struct {
	Content string `json:"content" binding:"required"`
}

// ProjectBriefDTO 项目简报
type ProjectBriefDTO struct {
	Purpose        string   `json:"purpose,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	DesignNotes    string   `json:"design_notes,omitempty"`
	ContentNotes   string   `json:"content_notes,omitempty"`
	WebStructure   []string `json:"web_structure,omitempty"`
}

// WebsiteResponse 网站信息
type WebsiteResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Subdomain      string           `json:"subdomain"`
	URL            string           `json:"url,omitempty"`
	Prompt         string           `json:"prompt,omitempty"`
	EnhancedPrompt string           `json:"enhanced_prompt,omitempty"`
	Pages          []string         `json:"pages"`
	Brief          *ProjectBriefDTO `json:"brief,omitempty"`
	Status         string           `json:"status"`
	CreatedAt      string           `json:"created_at"`
	UpdatedAt      string           `json:"updated_at"`
}

// GenerateWebsiteResponse 网站生成结果
type GenerateWebsiteResponse struct {
	Website   *WebsiteResponse `json:"website"`
	PageCount int              `json:"page_count"`
	Tier      string           `json:"tier"`
}

// PageResponse 页面信息
type PageResponse struct {
	ID        string `json:"id"`
	WebsiteID string `json:"website_id"`
	Name      string `json:"name"`
	Content   string `json:"content,omitempty"`
	Primary   bool   `json:"primary"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// WebsiteListResponse 网站列表
type WebsiteListResponse struct {
	Websites []*WebsiteResponse `json:"websites"`
}

// PageListResponse 页面列表
type PageListResponse struct {
	Pages []*PageResponse `json:"pages"`
}

// ToProjectBriefDTO 将领域简报转换为 DTO
func ToProjectBriefDTO(b *entity.ProjectBrief) *ProjectBriefDTO {
	if b == nil {
		return nil
	}
	return &ProjectBriefDTO{
		Purpose:        b.Purpose,
		TargetAudience: b.TargetAudience,
		DesignNotes:    b.DesignNotes,
		ContentNotes:   b.ContentNotes,
		WebStructure:   b.WebStructure,
	}
}

// ToWebsiteResponse 将领域实体转换为 DTO
func ToWebsiteResponse(w *entity.Website, siteDomain string) *WebsiteResponse {
	if w == nil {
		return nil
	}
	resp := &WebsiteResponse{
		ID:             w.ID,
		Name:           w.Name,
		Subdomain:      w.Subdomain,
		Prompt:         w.Prompt,
		EnhancedPrompt: w.EnhancedPrompt,
		Pages:          w.Pages,
		Brief:          ToProjectBriefDTO(w.Brief),
		Status:         string(w.Status),
		CreatedAt:      w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      w.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if siteDomain != "" && w.Subdomain != "" {
		resp.URL = "https://" + w.Subdomain + "." + siteDomain
	}
	return resp
}

// ToWebsiteListResponse 批量转换网站列表
func ToWebsiteListResponse(websites []*entity.Website, siteDomain string) *WebsiteListResponse {
	out := make([]*WebsiteResponse, 0, len(websites))
	for _, w := range websites {
		resp := ToWebsiteResponse(w, siteDomain)
		// 列表视图不回传提示词全文
		resp.Prompt = ""
		resp.EnhancedPrompt = ""
		out = append(out, resp)
	}
	return &WebsiteListResponse{Websites: out}
}

// ToPageResponse 将页面实体转换为 DTO
func ToPageResponse(p *entity.Page, withContent bool) *PageResponse {
	if p == nil {
		return nil
	}
	resp := &PageResponse{
		ID:        p.ID,
		WebsiteID: p.WebsiteID,
		Name:      p.Name,
		Primary:   p.IsPrimary(),
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if withContent {
		resp.Content = p.Content
	}
	return resp
}

// ToPageListResponse 批量转换页面列表，不含页面内容
func ToPageListResponse(pages []*entity.Page) *PageListResponse {
	out := make([]*PageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, ToPageResponse(p, false))
	}
	return &PageListResponse{Pages: out}
}

// ToGenerateWebsiteResponse 将生成结果转换为 DTO
func ToGenerateWebsiteResponse(result *sitegen.GenerateResult, siteDomain string) *GenerateWebsiteResponse {
	if result == nil {
		return nil
	}
	return &GenerateWebsiteResponse{
		Website:   ToWebsiteResponse(result.Website, siteDomain),
		PageCount: len(result.Pages),
		Tier:      string(result.Tier),
	}
}
