// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h RouterHandlers) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	// 用户管理
	users := v1.Group("/users")
	{
		users.GET("/me", h.User.GetMe)
		users.PUT("/me", h.User.UpdateMe)
	}

	// 网站管理
	websites := v1.Group("/websites")
	{
		websites.GET("", h.Website.List)
		websites.POST("/generate", h.Website.Generate)
		websites.GET("/:wid", h.Website.Get)
		websites.PUT("/:wid", h.Website.Rename)
		websites.DELETE("/:wid", h.Website.Delete)
		websites.POST("/:wid/generate", h.Website.Regenerate)
		websites.POST("/:wid/fix-pages", h.Website.FixPages)

		// 网站下的页面
		websites.GET("/:wid/pages", h.Website.ListPages)
		websites.GET("/:wid/pages/:name", h.Website.GetPage)
		websites.PUT("/:wid/pages/:name", h.Website.UpdatePage)
	}

	// 需求设计对话
	chat := v1.Group("/chat")
	{
		chat.GET("/sessions", h.Conversation.ListSessions)
		chat.POST("/sessions", h.Conversation.CreateMessage)
		chat.GET("/sessions/:sid", h.Conversation.GetSession)
		chat.POST("/sessions/:sid/messages", h.Conversation.SendMessage)
		chat.GET("/sessions/:sid/turns", h.Conversation.ListTurns)
	}
}
