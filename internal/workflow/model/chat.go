package model

// DesignChatInput 定义了设计对话链的输入参数
type DesignChatInput struct {
	Message string
	History []ChatTurn
	Brief   string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}
