// Package parse 实现模型输出的结构化块抽取、解码与多文件物化
package parse

import (
	"strings"
)

// BlockType 结构化块类型
type BlockType string

const (
	BlockProjectBriefUpdate   BlockType = "project_brief_update"
	BlockQuickReplies         BlockType = "quick_replies"
	BlockInteractiveComponent BlockType = "interactive_component"
)

// MarkerKind 起始标记种类
type MarkerKind int

const (
	// MarkerFence 围栏标记：```<token> ... ```
	MarkerFence MarkerKind = iota
	// MarkerSentinel 哨兵标记：<TOKEN>: 后跟单个 JSON 值
	MarkerSentinel
)

// BlockSpec 一种结构化块的识别规则
type BlockSpec struct {
	Type  BlockType
	Kind  MarkerKind
	Token string
}

// Block 抽取出的结构化块
type Block struct {
	Type              BlockType
	Payload           string
	PossiblyTruncated bool
}

// ExtractResult 抽取结果
type ExtractResult struct {
	// Blocks 每种类型至多一个，取首次出现
	Blocks map[BlockType]Block
	// Duplicates 同类型的后续出现，已从残余文本中剔除
	Duplicates []Block
	// Residual 剔除全部块及标记后的会话文本
	Residual string
}

// DefaultSpecs 返回设计对话使用的全部块规则，顺序即同位置优先级
func DefaultSpecs() []BlockSpec {
	return []BlockSpec{
		{Type: BlockProjectBriefUpdate, Kind: MarkerFence, Token: "project-brief-update"},
		{Type: BlockQuickReplies, Kind: MarkerFence, Token: "quick-replies"},
		{Type: BlockQuickReplies, Kind: MarkerSentinel, Token: "QUICK_REPLIES"},
		{Type: BlockInteractiveComponent, Kind: MarkerSentinel, Token: "INTERACTIVE_COMPONENT"},
		{Type: BlockInteractiveComponent, Kind: MarkerFence, Token: "json"},
	}
}

type match struct {
	spec  BlockSpec
	start int // 含起始标记
	end   int // 不含，指向块后第一个字符
	body  string
	trunc bool
}

// Extract 对文本做单次从左到右扫描，抽取结构化块并返回残余文本。
// 同一位置多个规则命中时按注册顺序取first；同类型的后续出现记入 Duplicates。
func Extract(text string, specs []BlockSpec) *ExtractResult {
	res := &ExtractResult{Blocks: make(map[BlockType]Block)}

	var removed []match
	pos := 0
	for pos < len(text) {
		m, ok := findNext(text, pos, specs)
		if !ok {
			break
		}
		blk := Block{Type: m.spec.Type, Payload: m.body, PossiblyTruncated: m.trunc}
		if _, seen := res.Blocks[m.spec.Type]; seen {
			res.Duplicates = append(res.Duplicates, blk)
		} else {
			res.Blocks[m.spec.Type] = blk
		}
		removed = append(removed, m)
		pos = m.end
	}

	res.Residual = stripSpans(text, removed)
	return res
}

// findNext 找到 pos 之后最早命中的规则
func findNext(text string, pos int, specs []BlockSpec) (match, bool) {
	best := match{start: -1}
	for _, spec := range specs {
		m, ok := findSpec(text, pos, spec)
		if !ok {
			continue
		}
		if best.start < 0 || m.start < best.start {
			best = m
		}
	}
	return best, best.start >= 0
}

func findSpec(text string, pos int, spec BlockSpec) (match, bool) {
	switch spec.Kind {
	case MarkerFence:
		return findFence(text, pos, spec)
	case MarkerSentinel:
		return findSentinel(text, pos, spec)
	}
	return match{}, false
}

// findFence 定位 ```<token> 围栏块
func findFence(text string, pos int, spec BlockSpec) (match, bool) {
	marker := "```" + spec.Token
	for {
		idx := strings.Index(text[pos:], marker)
		if idx < 0 {
			return match{}, false
		}
		start := pos + idx
		after := start + len(marker)

		// 标记后必须是行尾或空白，避免 ```json 命中 ```jsonc 之类
		rest := text[after:]
		if rest != "" && rest[0] != '\n' && rest[0] != '\r' && rest[0] != ' ' && rest[0] != '\t' {
			pos = after
			continue
		}

		bodyStart := after
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			bodyStart = after + nl + 1
		} else {
			// 起始标记后再无内容
			return match{spec: spec, start: start, end: len(text), body: "", trunc: true}, true
		}

		closeIdx := strings.Index(text[bodyStart:], "```")
		if closeIdx < 0 {
			// 未闭合：吞到文本末尾并标记可能截断
			return match{
				spec:  spec,
				start: start,
				end:   len(text),
				body:  strings.TrimSpace(text[bodyStart:]),
				trunc: true,
			}, true
		}

		end := bodyStart + closeIdx + 3
		return match{
			spec:  spec,
			start: start,
			end:   end,
			body:  strings.TrimSpace(text[bodyStart : bodyStart+closeIdx]),
		}, true
	}
}

// findSentinel 定位 <TOKEN>: 哨兵块，负载为其后的单个 JSON 值
func findSentinel(text string, pos int, spec BlockSpec) (match, bool) {
	marker := spec.Token + ":"
	idx := strings.Index(text[pos:], marker)
	if idx < 0 {
		return match{}, false
	}
	start := pos + idx
	payloadStart := start + len(marker)

	// 跳过空白找 JSON 起始
	i := payloadStart
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
		i++
	}
	if i >= len(text) || (text[i] != '{' && text[i] != '[') {
		// 哨兵后没有 JSON 值，吞掉整行
		lineEnd := strings.IndexByte(text[start:], '\n')
		end := len(text)
		if lineEnd >= 0 {
			end = start + lineEnd
		}
		return match{spec: spec, start: start, end: end, body: strings.TrimSpace(text[payloadStart:end]), trunc: true}, true
	}

	end, closed := scanJSONValue(text, i)
	return match{
		spec:  spec,
		start: start,
		end:   end,
		body:  strings.TrimSpace(text[i:end]),
		trunc: !closed,
	}, true
}

// scanJSONValue 从 start 开始做括号配平扫描，返回值结束位置（不含）。
// 字符串内部的括号与转义不计入配平。未配平返回 (len(text), false)。
func scanJSONValue(text string, start int) (int, bool) {
	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return len(text), false
}

// stripSpans 从文本中剔除所有块区间并整理空白
func stripSpans(text string, spans []match) string {
	if len(spans) == 0 {
		return strings.TrimSpace(text)
	}

	var sb strings.Builder
	prev := 0
	for _, s := range spans {
		if s.start > prev {
			sb.WriteString(text[prev:s.start])
		}
		prev = s.end
	}
	if prev < len(text) {
		sb.WriteString(text[prev:])
	}

	out := sb.String()
	// 压缩剔除后留下的连续空行
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
