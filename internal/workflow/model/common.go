package model

import "time"

// ChatTurn 对话历史中的一轮
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Temperature      float64
	GeneratedAt      time.Time
}
