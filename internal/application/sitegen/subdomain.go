package sitegen

import (
	"fmt"
	"math/rand"
	"strings"
)

var subdomainAdjectives = []string{
	"swift", "bright", "calm", "bold", "fresh", "clever", "sunny", "vivid",
	"quiet", "lively", "crisp", "gentle", "keen", "merry", "noble", "proud",
}

var subdomainNouns = []string{
	"falcon", "harbor", "meadow", "summit", "canvas", "beacon", "garden", "voyage",
	"ember", "grove", "ridge", "lagoon", "orchid", "prairie", "comet", "willow",
}

// RandomSubdomain 生成 形容词-名词-数字 形式的随机子域名
func RandomSubdomain() string {
	adj := subdomainAdjectives[rand.Intn(len(subdomainAdjectives))]
	noun := subdomainNouns[rand.Intn(len(subdomainNouns))]
	return fmt.Sprintf("%s-%s-%d", adj, noun, rand.Intn(9000)+1000)
}

// SlugifyName 把网站名转为可用作子域名前缀的 slug
func SlugifyName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('-')
		}
	}
	slug := strings.Trim(sb.String(), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return slug
}
