package parse

import (
	"fmt"
	"regexp"
	"strings"
)

// Tier 物化命中的层级
type Tier string

const (
	TierNamedSections Tier = "named_sections"
	TierBareBlocks    Tier = "bare_blocks"
	TierWholeDocument Tier = "whole_document"
	TierFallback      Tier = "fallback"
)

// File 物化出的站点文件
type File struct {
	Name    string
	Content string
}

var (
	sectionHeaderRe = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	htmlFenceRe     = regexp.MustCompile("(?s)```html\\s*\n(.*?)```")
	anyFenceRe      = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n(.*?)```")
)

// MaterializeFiles 把生成文本拆成站点文件集合。
// 依次尝试：命名分节 -> 裸 html 代码块 -> 整篇文档 -> 兜底错误页。
// 入口文件恒为 index.html。
func MaterializeFiles(text string) ([]File, Tier) {
	body := unwrapEnvelope(text)

	if files := splitNamedSections(body); len(files) > 0 {
		return ensurePrimary(files), TierNamedSections
	}

	if files := splitBareBlocks(body); len(files) > 0 {
		return files, TierBareBlocks
	}

	trimmed := strings.TrimSpace(body)
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html") {
		return []File{{Name: "index.html", Content: trimmed}}, TierWholeDocument
	}

	return []File{{Name: "index.html", Content: fallbackPage()}}, TierFallback
}

// unwrapEnvelope 去掉 <final_code> 包裹；只有开标签时取到文本末尾
func unwrapEnvelope(text string) string {
	const open = "<final_code>"
	const close = "</final_code>"

	start := strings.Index(text, open)
	if start < 0 {
		return text
	}
	rest := text[start+len(open):]
	if end := strings.Index(rest, close); end >= 0 {
		return rest[:end]
	}
	return rest
}

// splitNamedSections 按 "## 文件名" 分节解析多文件输出
func splitNamedSections(body string) []File {
	headers := sectionHeaderRe.FindAllStringSubmatchIndex(body, -1)
	if len(headers) == 0 {
		return nil
	}

	var files []File
	for i, h := range headers {
		name := cleanFileName(body[h[2]:h[3]])
		if name == "" {
			continue
		}

		sectionEnd := len(body)
		if i+1 < len(headers) {
			sectionEnd = headers[i+1][0]
		}
		section := body[h[1]:sectionEnd]

		content := ""
		if m := htmlFenceRe.FindStringSubmatch(section); m != nil {
			content = strings.TrimSpace(m[1])
		} else if m := anyFenceRe.FindStringSubmatch(section); m != nil {
			content = strings.TrimSpace(m[1])
		} else {
			// 没有围栏时把分节余下内容当作文件体
			content = strings.TrimSpace(section)
		}
		if content == "" {
			continue
		}

		files = append(files, File{Name: name, Content: content})
	}
	return files
}

// splitBareBlocks 解析没有文件名标注的裸 html 代码块
func splitBareBlocks(body string) []File {
	matches := htmlFenceRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	var files []File
	for _, m := range matches {
		content := strings.TrimSpace(m[1])
		if content == "" {
			continue
		}
		name := "index.html"
		if len(files) > 0 {
			name = fmt.Sprintf("page-%d.html", len(files))
		}
		files = append(files, File{Name: name, Content: content})
	}
	return files
}

// ensurePrimary 保证文件集中存在 index.html，缺失时把第一个文件改名顶上
func ensurePrimary(files []File) []File {
	for _, f := range files {
		if f.Name == "index.html" {
			return files
		}
	}
	if len(files) > 0 {
		files[0].Name = "index.html"
	}
	return files
}

// cleanFileName 清理分节标题里的文件名
func cleanFileName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.Trim(name, "`*")
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.Contains(name, ".") {
		name += ".html"
	}
	return name
}

// fallbackPage 生成失败时的兜底错误页
func fallbackPage() string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Generation Error</title>
<style>
body { font-family: sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #f8f9fa; }
.card { text-align: center; padding: 2rem; }
h1 { color: #343a40; }
p { color: #6c757d; }
</style>
</head>
<body>
<div class="card">
<h1>Something went wrong</h1>
<p>We could not build this page from the generated output. Please try generating again.</p>
</div>
</body>
</html>`
}
