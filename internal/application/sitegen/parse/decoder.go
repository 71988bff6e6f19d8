package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"rapidsite-ai-api/internal/workflow/node"
)

// Outcome 解码结果等级
type Outcome string

const (
	// OutcomeSuccess 严格解析成功
	OutcomeSuccess Outcome = "success"
	// OutcomeRepaired 经宽松修复或逐条提取后成功
	OutcomeRepaired Outcome = "repaired"
	// OutcomeFailure 所有手段均失败，值为 nil
	OutcomeFailure Outcome = "failure"
)

// BriefUpdate 项目简报更新，所有字段均可缺省
type BriefUpdate struct {
	Purpose        string          `json:"purpose,omitempty"`
	TargetAudience string          `json:"targetAudience,omitempty"`
	DesignNotes    string          `json:"designNotes,omitempty"`
	ContentNotes   string          `json:"contentNotes,omitempty"`
	WebStructure   json.RawMessage `json:"webStructure,omitempty"`
}

// Structure 返回规整后的页面结构列表，兼容字符串与数组两种写法
func (b *BriefUpdate) Structure() []string {
	if b == nil || len(b.WebStructure) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b.WebStructure, &arr); err == nil {
		return arr
	}
	var single string
	if err := json.Unmarshal(b.WebStructure, &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{single}
	}
	return nil
}

// QuickReply 规整后的快捷回复
type QuickReply struct {
	Text          string `json:"text"`
	Value         string `json:"value"`
	IsMultiSelect bool   `json:"isMultiSelect,omitempty"`
}

// InteractiveComponent 交互组件描述，type/promptKey/props 为必填
type InteractiveComponent struct {
	Type      string                 `json:"type"`
	PromptKey string                 `json:"promptKey"`
	Props     map[string]interface{} `json:"props"`
}

// DecodeBriefUpdate 解码项目简报更新块
func DecodeBriefUpdate(payload string) (*BriefUpdate, Outcome) {
	raw := node.ExtractJSONObject(payload)
	if strings.TrimSpace(raw) == "" {
		return nil, OutcomeFailure
	}

	var update BriefUpdate
	if err := json.Unmarshal([]byte(raw), &update); err == nil {
		return &update, OutcomeSuccess
	}

	if err := json.Unmarshal([]byte(RepairJSON(raw)), &update); err == nil {
		return &update, OutcomeRepaired
	}

	return nil, OutcomeFailure
}

// quickReplyRecordRe 逐条提取快捷回复对象的兜底规则
var quickReplyRecordRe = regexp.MustCompile(
	`\{\s*"text"\s*:\s*"([^"]+)"\s*,\s*"value"\s*:\s*"([^"]+)"\s*(?:,\s*"isMultiSelect"\s*:\s*(true|false))?\s*\}`)

// DecodeQuickReplies 解码快捷回复块
// 严格解析 -> 宽松修复 -> 逐条正则提取，三级均失败才算失败
func DecodeQuickReplies(payload string) ([]QuickReply, Outcome) {
	raw := node.ExtractJSONObject(payload)
	if strings.TrimSpace(raw) == "" {
		return nil, OutcomeFailure
	}

	if replies, ok := unmarshalQuickReplies(raw); ok {
		return replies, OutcomeSuccess
	}

	repaired := RepairJSON(raw)
	if replies, ok := unmarshalQuickReplies(repaired); ok {
		return replies, OutcomeRepaired
	}

	// 逐条提取：整体结构已坏，但单条记录往往仍完整
	matches := quickReplyRecordRe.FindAllStringSubmatch(repaired, -1)
	if len(matches) > 0 {
		replies := make([]QuickReply, 0, len(matches))
		for _, m := range matches {
			replies = append(replies, QuickReply{
				Text:          m[1],
				Value:         m[2],
				IsMultiSelect: m[3] == "true",
			})
		}
		return replies, OutcomeRepaired
	}

	return nil, OutcomeFailure
}

// unmarshalQuickReplies 解析字符串数组或对象数组并统一规整
func unmarshalQuickReplies(raw string) ([]QuickReply, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}

	replies := make([]QuickReply, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if strings.TrimSpace(s) == "" {
				continue
			}
			replies = append(replies, QuickReply{Text: s, Value: s})
			continue
		}

		var obj QuickReply
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, false
		}
		if strings.TrimSpace(obj.Text) == "" {
			continue
		}
		if obj.Value == "" {
			obj.Value = obj.Text
		}
		replies = append(replies, obj)
	}
	return replies, true
}

// DecodeInteractiveComponent 解码交互组件块，缺必填字段视为失败
func DecodeInteractiveComponent(payload string) (*InteractiveComponent, Outcome) {
	raw := node.ExtractJSONObject(payload)
	if strings.TrimSpace(raw) == "" {
		return nil, OutcomeFailure
	}

	outcome := OutcomeSuccess
	var comp InteractiveComponent
	if err := json.Unmarshal([]byte(raw), &comp); err != nil {
		if err := json.Unmarshal([]byte(RepairJSON(raw)), &comp); err != nil {
			return nil, OutcomeFailure
		}
		outcome = OutcomeRepaired
	}

	if strings.TrimSpace(comp.Type) == "" || strings.TrimSpace(comp.PromptKey) == "" || comp.Props == nil {
		return nil, OutcomeFailure
	}
	return &comp, outcome
}
