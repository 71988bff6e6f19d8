package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBriefUpdate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		outcome Outcome
		check   func(t *testing.T, u *BriefUpdate)
	}{
		{
			name:    "严格解析",
			payload: `{"purpose": "online portfolio", "targetAudience": "designers"}`,
			outcome: OutcomeSuccess,
			check: func(t *testing.T, u *BriefUpdate) {
				assert.Equal(t, "online portfolio", u.Purpose)
				assert.Equal(t, "designers", u.TargetAudience)
			},
		},
		{
			name:    "单引号与裸键修复",
			payload: `{purpose: 'coffee shop site', designNotes: 'warm tones',}`,
			outcome: OutcomeRepaired,
			check: func(t *testing.T, u *BriefUpdate) {
				assert.Equal(t, "coffee shop site", u.Purpose)
				assert.Equal(t, "warm tones", u.DesignNotes)
			},
		},
		{
			name:    "夹杂说明文字",
			payload: "Here is the update:\n{\"contentNotes\": \"add pricing\"} hope this helps",
			outcome: OutcomeSuccess,
			check: func(t *testing.T, u *BriefUpdate) {
				assert.Equal(t, "add pricing", u.ContentNotes)
			},
		},
		{
			name:    "完全不是 JSON",
			payload: "抱歉，我无法生成简报",
			outcome: OutcomeFailure,
		},
		{
			name:    "空负载",
			payload: "   ",
			outcome: OutcomeFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, outcome := DecodeBriefUpdate(tt.payload)
			assert.Equal(t, tt.outcome, outcome)
			if tt.outcome == OutcomeFailure {
				assert.Nil(t, u)
				return
			}
			require.NotNil(t, u)
			tt.check(t, u)
		})
	}
}

func TestBriefUpdateStructure(t *testing.T) {
	u, outcome := DecodeBriefUpdate(`{"webStructure": ["index.html", "about.html"]}`)
	require.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, []string{"index.html", "about.html"}, u.Structure())

	u, outcome = DecodeBriefUpdate(`{"webStructure": "index.html"}`)
	require.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, []string{"index.html"}, u.Structure())

	u, outcome = DecodeBriefUpdate(`{"purpose": "x"}`)
	require.Equal(t, OutcomeSuccess, outcome)
	assert.Nil(t, u.Structure())

	var nilUpdate *BriefUpdate
	assert.Nil(t, nilUpdate.Structure())
}

func TestDecodeQuickRepliesStringArray(t *testing.T) {
	replies, outcome := DecodeQuickReplies(`["Dark theme", "Light theme", ""]`)

	assert.Equal(t, OutcomeSuccess, outcome)
	require.Len(t, replies, 2)
	// 字符串写法规整为 text 与 value 相同
	assert.Equal(t, QuickReply{Text: "Dark theme", Value: "Dark theme"}, replies[0])
	assert.Equal(t, QuickReply{Text: "Light theme", Value: "Light theme"}, replies[1])
}

func TestDecodeQuickRepliesObjectArray(t *testing.T) {
	payload := `[
		{"text": "Minimal", "value": "minimal"},
		{"text": "Bold", "value": "bold", "isMultiSelect": true},
		{"text": "No value"}
	]`

	replies, outcome := DecodeQuickReplies(payload)

	assert.Equal(t, OutcomeSuccess, outcome)
	require.Len(t, replies, 3)
	assert.Equal(t, "minimal", replies[0].Value)
	assert.True(t, replies[1].IsMultiSelect)
	// value 缺省时回填 text
	assert.Equal(t, "No value", replies[2].Value)
}

func TestDecodeQuickRepliesRepaired(t *testing.T) {
	replies, outcome := DecodeQuickReplies(`[{text: 'One', value: 'one'},]`)

	assert.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, replies, 1)
	assert.Equal(t, "One", replies[0].Text)
}

func TestDecodeQuickRepliesRecordFallback(t *testing.T) {
	// 整体数组残缺，但单条记录完整
	payload := `[{"text": "First", "value": "first"}, {"text": "Second", "value": "second", "isMultiSelect": true}, {"text": "br`

	replies, outcome := DecodeQuickReplies(payload)

	assert.Equal(t, OutcomeRepaired, outcome)
	require.Len(t, replies, 2)
	assert.Equal(t, "first", replies[0].Value)
	assert.True(t, replies[1].IsMultiSelect)
}

func TestDecodeQuickRepliesFailure(t *testing.T) {
	replies, outcome := DecodeQuickReplies("not json at all")
	assert.Equal(t, OutcomeFailure, outcome)
	assert.Nil(t, replies)
}

func TestDecodeInteractiveComponent(t *testing.T) {
	comp, outcome := DecodeInteractiveComponent(`{"type": "color-picker", "promptKey": "palette", "props": {"colors": ["#fff"]}}`)

	require.Equal(t, OutcomeSuccess, outcome)
	require.NotNil(t, comp)
	assert.Equal(t, "color-picker", comp.Type)
	assert.Equal(t, "palette", comp.PromptKey)
	assert.Contains(t, comp.Props, "colors")
}

func TestDecodeInteractiveComponentMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"缺 type", `{"promptKey": "k", "props": {}}`},
		{"缺 promptKey", `{"type": "t", "props": {}}`},
		{"缺 props", `{"type": "t", "promptKey": "k"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, outcome := DecodeInteractiveComponent(tt.payload)
			assert.Equal(t, OutcomeFailure, outcome)
			assert.Nil(t, comp)
		})
	}
}

func TestDecodeInteractiveComponentRepaired(t *testing.T) {
	comp, outcome := DecodeInteractiveComponent(`{type: 'slider', promptKey: 'budget', props: {min: 0},}`)

	require.Equal(t, OutcomeRepaired, outcome)
	assert.Equal(t, "slider", comp.Type)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"单引号", `{'a': 'b'}`, `{"a": "b"}`},
		{"裸键", `{key: "v", other_key: 1}`, `{"key": "v", "other_key": 1}`},
		{"尾逗号", `{"a": 1,}`, `{"a": 1}`},
		{"数组尾逗号", `[1, 2, ]`, `[1, 2]`},
		{"已合法不变", `{"a": [1, 2]}`, `{"a": [1, 2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairJSON(tt.in))
		})
	}
}
