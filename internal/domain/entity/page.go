// Package entity 定义领域实体
package entity

import (
	"time"
)

// Page 网站页面实体，按文件名唯一
type Page struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WebsiteID string    `json:"website_id" gorm:"type:uuid;not null;uniqueIndex:idx_pages_website_name"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_pages_website_name"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Page) TableName() string {
	return "pages"
}

// NewPage 创建新页面
func NewPage(websiteID, name, content string) *Page {
	now := time.Now()
	return &Page{
		WebsiteID: websiteID,
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPrimary 是否为站点入口页面
func (p *Page) IsPrimary() bool {
	return p.Name == "index.html"
}
