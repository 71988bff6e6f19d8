// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/lib/pq"
)

// WebsiteStatus 网站状态
type WebsiteStatus string

const (
	WebsiteStatusGenerating WebsiteStatus = "generating"
	WebsiteStatusCompleted  WebsiteStatus = "completed"
	WebsiteStatusFailed     WebsiteStatus = "failed"
)

// ProjectBrief 网站项目简报，在设计对话中逐步完善
type ProjectBrief struct {
	Purpose        string   `json:"purpose,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	DesignNotes    string   `json:"design_notes,omitempty"`
	ContentNotes   string   `json:"content_notes,omitempty"`
	WebStructure   []string `json:"web_structure,omitempty"`
}

// Merge 合并简报更新，仅覆盖更新中非空的字段
func (b *ProjectBrief) Merge(update *ProjectBrief) {
	if update == nil {
		return
	}
	if update.Purpose != "" {
		b.Purpose = update.Purpose
	}
	if update.TargetAudience != "" {
		b.TargetAudience = update.TargetAudience
	}
	if update.DesignNotes != "" {
		b.DesignNotes = update.DesignNotes
	}
	if update.ContentNotes != "" {
		b.ContentNotes = update.ContentNotes
	}
	if len(update.WebStructure) > 0 {
		b.WebStructure = update.WebStructure
	}
}

// Website 网站实体
type Website struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         string         `json:"user_id" gorm:"type:uuid;index;not null"`
	Name           string         `json:"name" gorm:"type:varchar(255);not null"`
	Subdomain      string         `json:"subdomain" gorm:"type:varchar(128);uniqueIndex;not null"`
	Prompt         string         `json:"prompt,omitempty" gorm:"type:text"`
	EnhancedPrompt string         `json:"enhanced_prompt,omitempty" gorm:"type:text"`
	Pages          pq.StringArray `json:"pages" gorm:"type:text[]"`
	Brief          *ProjectBrief  `json:"brief,omitempty" gorm:"type:jsonb;serializer:json"`
	Status         WebsiteStatus  `json:"status" gorm:"type:varchar(50);default:'generating'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Website) TableName() string {
	return "websites"
}

// NewWebsite 创建新网站，初始状态为生成中
func NewWebsite(userID, name, subdomain, prompt string) *Website {
	now := time.Now()
	return &Website{
		UserID:    userID,
		Name:      name,
		Subdomain: subdomain,
		Prompt:    prompt,
		Pages:     pq.StringArray{},
		Status:    WebsiteStatusGenerating,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkCompleted 标记生成完成并记录页面清单
func (w *Website) MarkCompleted(pages []string) {
	w.Pages = pq.StringArray(pages)
	w.Status = WebsiteStatusCompleted
	w.UpdatedAt = time.Now()
}

// MarkFailed 标记生成失败
func (w *Website) MarkFailed() {
	w.Status = WebsiteStatusFailed
	w.UpdatedAt = time.Now()
}

// HasPage 检查页面是否在清单中
func (w *Website) HasPage(name string) bool {
	for _, p := range w.Pages {
		if p == name {
			return true
		}
	}
	return false
}
