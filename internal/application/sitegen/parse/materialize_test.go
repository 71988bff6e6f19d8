package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeNamedSections(t *testing.T) {
	text := "<final_code>\n" +
		"## index.html\n```html\n<!DOCTYPE html><html><body>home</body></html>\n```\n" +
		"## about.html\n```html\n<!DOCTYPE html><html><body>about</body></html>\n```\n" +
		"</final_code>"

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierNamedSections, tier)
	require.Len(t, files, 2)
	assert.Equal(t, "index.html", files[0].Name)
	assert.Contains(t, files[0].Content, "home")
	assert.Equal(t, "about.html", files[1].Name)
	assert.Contains(t, files[1].Content, "about")
}

func TestMaterializeNamedSectionsHeaderVariants(t *testing.T) {
	text := "## `contact.html`\n```html\n<html>contact</html>\n```\n" +
		"## **pricing**\n```html\n<html>pricing</html>\n```"

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierNamedSections, tier)
	require.Len(t, files, 2)
	// 反引号与加粗要剥掉，无扩展名补 .html
	assert.Equal(t, "index.html", files[0].Name) // contact.html 被改名顶上入口
	assert.Equal(t, "pricing.html", files[1].Name)
}

func TestMaterializeNamedSectionWithoutFence(t *testing.T) {
	text := "## index.html\n<!DOCTYPE html>\n<html><body>raw</body></html>"

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierNamedSections, tier)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Content, "raw")
}

func TestMaterializeEnsurePrimaryRename(t *testing.T) {
	text := "## about.html\n```html\n<html>about</html>\n```\n" +
		"## contact.html\n```html\n<html>contact</html>\n```"

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierNamedSections, tier)
	require.Len(t, files, 2)
	assert.Equal(t, "index.html", files[0].Name)
	assert.Contains(t, files[0].Content, "about")
	assert.Equal(t, "contact.html", files[1].Name)
}

func TestMaterializeBareBlocks(t *testing.T) {
	text := "Here you go:\n```html\n<html>one</html>\n```\nand a second page\n```html\n<html>two</html>\n```"

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierBareBlocks, tier)
	require.Len(t, files, 2)
	assert.Equal(t, "index.html", files[0].Name)
	assert.Equal(t, "page-1.html", files[1].Name)
}

func TestMaterializeWholeDocument(t *testing.T) {
	text := "  <!DOCTYPE html>\n<html><head></head><body>direct</body></html>  "

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierWholeDocument, tier)
	require.Len(t, files, 1)
	assert.Equal(t, "index.html", files[0].Name)
	assert.Equal(t, strings.TrimSpace(text), files[0].Content)
}

func TestMaterializeWholeDocumentCaseInsensitive(t *testing.T) {
	files, tier := MaterializeFiles("<HTML><body>upper</body></HTML>")

	assert.Equal(t, TierWholeDocument, tier)
	assert.Contains(t, files[0].Content, "upper")
}

func TestMaterializeFallback(t *testing.T) {
	files, tier := MaterializeFiles("抱歉，我无法生成这个网站。")

	assert.Equal(t, TierFallback, tier)
	require.Len(t, files, 1)
	assert.Equal(t, "index.html", files[0].Name)
	assert.Contains(t, files[0].Content, "<!DOCTYPE html>")
	assert.Contains(t, files[0].Content, "Something went wrong")
}

func TestMaterializeEmptyInputHitsFallback(t *testing.T) {
	files, tier := MaterializeFiles("")

	assert.Equal(t, TierFallback, tier)
	require.Len(t, files, 1)
	assert.Equal(t, "index.html", files[0].Name)
	assert.Contains(t, files[0].Content, "Something went wrong")
}

func TestMaterializeNeverEmpty(t *testing.T) {
	// 任何输入都至少产出一个文件，且文件名和内容都非空
	inputs := []string{"", "   \n\n  ", "<final_code></final_code>", "随便一句话"}
	for _, in := range inputs {
		files, _ := MaterializeFiles(in)
		require.NotEmpty(t, files, "input %q", in)
		for _, f := range files {
			assert.NotEmpty(t, f.Name, "input %q", in)
			assert.NotEmpty(t, f.Content, "input %q", in)
		}
	}
}

func TestMaterializeHeaderPriorityOverBareBlocks(t *testing.T) {
	// 命名分节和游离代码块同时出现时只认分节，游离块不产出文件
	text := "```html\n<html>stray</html>\n```\n" +
		"## home.html\n```html\n<html>home</html>\n```\n" +
		"## about.html\n```html\n<html>about</html>\n```"

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierNamedSections, tier)
	require.Len(t, files, 2)
	assert.Equal(t, "index.html", files[0].Name)
	assert.Contains(t, files[0].Content, "home")
	assert.Equal(t, "about.html", files[1].Name)
	for _, f := range files {
		assert.NotContains(t, f.Content, "stray")
	}
}

func TestMaterializeOpenOnlyEnvelope(t *testing.T) {
	// 输出被截断时可能只有开标签
	text := "思考过程...\n<final_code>\n## index.html\n```html\n<html>partial</html>\n```"

	files, tier := MaterializeFiles(text)

	assert.Equal(t, TierNamedSections, tier)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Content, "partial")
}

func TestMaterializeEnvelopeStripsSurroundingText(t *testing.T) {
	text := "前置推理，里面提到 <html> 字样也不算数\n<final_code>\nplain text only\n</final_code>\n收尾说明"

	files, tier := MaterializeFiles(text)

	// 包裹内没有可物化内容，走兜底
	assert.Equal(t, TierFallback, tier)
	require.Len(t, files, 1)
}

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"index.html", "index.html"},
		{" `about.html` ", "about.html"},
		{"**services**", "services.html"},
		{"styles.css", "styles.css"},
		{"  ", ""},
		{"`*`", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanFileName(tt.in), "input %q", tt.in)
	}
}
