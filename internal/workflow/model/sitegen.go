package model

// SiteGenerateInput 定义了网站生成链的输入参数
type SiteGenerateInput struct {
	Prompt string
	Brief  string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// EnhanceInput 定义了提示词增强链的输入参数
type EnhanceInput struct {
	Prompt string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}
