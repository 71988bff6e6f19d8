package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFenceBlock(t *testing.T) {
	text := "好的，我更新了简报。\n```project-brief-update\n{\"purpose\": \"portfolio\"}\n```\n接下来想聊聊配色吗？"

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockProjectBriefUpdate)
	blk := res.Blocks[BlockProjectBriefUpdate]
	assert.Equal(t, `{"purpose": "portfolio"}`, blk.Payload)
	assert.False(t, blk.PossiblyTruncated)
	assert.Equal(t, "好的，我更新了简报。\n\n接下来想聊聊配色吗？", res.Residual)
	assert.Empty(t, res.Duplicates)
}

func TestExtractSentinelBlock(t *testing.T) {
	text := `Here are some options.
QUICK_REPLIES: [{"text": "Dark theme", "value": "dark"}]
Let me know.`

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockQuickReplies)
	blk := res.Blocks[BlockQuickReplies]
	assert.Equal(t, `[{"text": "Dark theme", "value": "dark"}]`, blk.Payload)
	assert.False(t, blk.PossiblyTruncated)
	assert.NotContains(t, res.Residual, "QUICK_REPLIES")
	assert.Contains(t, res.Residual, "Here are some options.")
	assert.Contains(t, res.Residual, "Let me know.")
}

func TestExtractMultipleTypes(t *testing.T) {
	text := "```project-brief-update\n{\"purpose\": \"shop\"}\n```\n" +
		"一些说明文字\n" +
		"```quick-replies\n[\"A\", \"B\"]\n```\n" +
		"INTERACTIVE_COMPONENT: {\"type\": \"color-picker\", \"promptKey\": \"palette\", \"props\": {}}"

	res := Extract(text, DefaultSpecs())

	assert.Len(t, res.Blocks, 3)
	assert.Contains(t, res.Blocks, BlockProjectBriefUpdate)
	assert.Contains(t, res.Blocks, BlockQuickReplies)
	assert.Contains(t, res.Blocks, BlockInteractiveComponent)
	assert.Equal(t, "一些说明文字", res.Residual)
}

func TestExtractDuplicateKeepsFirst(t *testing.T) {
	text := "```quick-replies\n[\"first\"]\n```\ntext\n```quick-replies\n[\"second\"]\n```"

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockQuickReplies)
	assert.Equal(t, `["first"]`, res.Blocks[BlockQuickReplies].Payload)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, `["second"]`, res.Duplicates[0].Payload)
	// 重复块同样要从残余文本剔除
	assert.Equal(t, "text", res.Residual)
}

func TestExtractUnterminatedFence(t *testing.T) {
	text := "前置说明\n```project-brief-update\n{\"purpose\": \"blog\""

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockProjectBriefUpdate)
	blk := res.Blocks[BlockProjectBriefUpdate]
	assert.True(t, blk.PossiblyTruncated)
	assert.Equal(t, `{"purpose": "blog"`, blk.Payload)
	assert.Equal(t, "前置说明", res.Residual)
}

func TestExtractSentinelUnbalancedJSON(t *testing.T) {
	text := `QUICK_REPLIES: [{"text": "one", "value": "1"}, {"text": "tw`

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockQuickReplies)
	assert.True(t, res.Blocks[BlockQuickReplies].PossiblyTruncated)
}

func TestExtractSentinelWithoutJSON(t *testing.T) {
	text := "QUICK_REPLIES: 这里没有 JSON\n后续文本"

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockQuickReplies)
	blk := res.Blocks[BlockQuickReplies]
	assert.True(t, blk.PossiblyTruncated)
	assert.Equal(t, "后续文本", res.Residual)
}

func TestExtractSentinelBracesInStrings(t *testing.T) {
	// 字符串里的括号不参与配平
	text := `INTERACTIVE_COMPONENT: {"type": "t", "promptKey": "k", "props": {"hint": "use { and ["}} trailing`

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockInteractiveComponent)
	blk := res.Blocks[BlockInteractiveComponent]
	assert.False(t, blk.PossiblyTruncated)
	assert.Equal(t, `{"type": "t", "promptKey": "k", "props": {"hint": "use { and ["}}`, blk.Payload)
	assert.Equal(t, "trailing", res.Residual)
}

func TestExtractFenceTokenBoundary(t *testing.T) {
	// ```json 不应命中 ```jsonc
	text := "```jsonc\n{\"a\": 1}\n```"

	res := Extract(text, DefaultSpecs())

	assert.Empty(t, res.Blocks)
	assert.Equal(t, text, res.Residual)
}

func TestExtractJSONFenceAsInteractive(t *testing.T) {
	text := "```json\n{\"type\": \"slider\", \"promptKey\": \"budget\", \"props\": {\"min\": 0}}\n```"

	res := Extract(text, DefaultSpecs())

	require.Contains(t, res.Blocks, BlockInteractiveComponent)
	assert.Empty(t, res.Residual)
}

func TestExtractNoBlocks(t *testing.T) {
	text := "  纯文本回复，没有任何结构化块。  "

	res := Extract(text, DefaultSpecs())

	assert.Empty(t, res.Blocks)
	assert.Empty(t, res.Duplicates)
	assert.Equal(t, "纯文本回复，没有任何结构化块。", res.Residual)
}

func TestExtractIdempotent(t *testing.T) {
	// 同一输入（复用同一组 spec）跑两遍，块与残余文本完全一致
	text := "好的。\n```project-brief-update\n{\"purpose\": \"blog\"}\n```\n中间说明\nQUICK_REPLIES: [\"A\", \"B\"]\n结尾"
	specs := DefaultSpecs()

	first := Extract(text, specs)
	second := Extract(text, specs)

	assert.Equal(t, first.Blocks, second.Blocks)
	assert.Equal(t, first.Residual, second.Residual)
	assert.Equal(t, first.Duplicates, second.Duplicates)
}

func TestExtractCollapsesBlankLines(t *testing.T) {
	text := "before\n\n```quick-replies\n[\"x\"]\n```\n\nafter"

	res := Extract(text, DefaultSpecs())

	assert.Equal(t, "before\n\nafter", res.Residual)
}
