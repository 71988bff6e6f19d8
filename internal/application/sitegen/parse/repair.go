package parse

import (
	"regexp"
)

// 宽松修复用的规则，对应模型输出里最常见的三类 JSON 毛病
var (
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([a-zA-Z0-9_]+)(\s*:)`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// RepairJSON 对近似 JSON 的文本做宽松修复：
// 单引号换双引号、给裸键补引号、去掉尾逗号。
// 修复是启发式的，调用方需再次严格解析确认。
func RepairJSON(s string) string {
	out := replaceSingleQuotes(s)
	out = bareKeyRe.ReplaceAllString(out, `$1"$2"$3`)
	out = trailingCommaRe.ReplaceAllString(out, `$1`)
	return out
}

// replaceSingleQuotes 把单引号统一替换为双引号
func replaceSingleQuotes(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '\'' {
			b[i] = '"'
		}
	}
	return string(b)
}
