package crawlers

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"golang.org/x/net/html"
)

// MediaMatcher 视频URL匹配器
// 职责: 判断字符串是否为视频文件URL(后缀匹配或内嵌模式匹配),并扫描原始文本中的引号URL
type MediaMatcher struct {
	// 路径的最后一段以视频扩展名结尾
	pathPattern *regexp.Regexp
	// 查询参数值以视频扩展名结尾,如 ?file=a.mp4&autoplay=1
	queryPattern *regexp.Regexp

	// 原始文档中被引号包裹、带视频扩展名的URL (内联播放器配置、JSON等)
	quotedPattern *regexp.Regexp
}

// NewMediaMatcher 创建视频URL匹配器
// extensions 为空时使用 models.DefaultMediaExtensions
func NewMediaMatcher(extensions []string) *MediaMatcher {
	exts := normalizeExtensions(extensions)
	if len(exts) == 0 {
		exts = normalizeExtensions(models.DefaultMediaExtensions)
	}

	alternatives := make([]string, 0, len(exts))
	for _, ext := range exts {
		alternatives = append(alternatives, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	group := strings.Join(alternatives, "|")

	return &MediaMatcher{
		pathPattern:   regexp.MustCompile(`(?i)\.(` + group + `)$`),
		queryPattern:  regexp.MustCompile(`(?i)\.(` + group + `)(?:$|[&;])`),
		quotedPattern: regexp.MustCompile(`(?i)["']([^"'\s<>]*?\.(?:` + group + `)(?:[?#][^"'\s<>]*)?)["']`),
	}
}

// Match 判断字符串是否为视频URL,匹配时返回命中的扩展名(如 ".mp4")
// 只检查路径和查询参数,主机名和中间路径段里的 ".mp4" 不算
func (m *MediaMatcher) Match(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}

	sub := m.pathPattern.FindStringSubmatch(u.Path)
	if sub == nil {
		sub = m.queryPattern.FindStringSubmatch(u.RawQuery)
	}
	if sub == nil {
		return "", false
	}
	return "." + strings.ToLower(sub[1]), true
}

// FindQuoted 扫描原始文本,返回所有引号包裹的视频URL候选值
// 候选值按属性解析的方式还原: HTML实体(&amp;)解码, JSON转义的 "\/" 和 "\u0026" 还原
func (m *MediaMatcher) FindQuoted(content string) []string {
	matches := m.quotedPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	results := make([]string, 0, len(matches))
	for _, match := range matches {
		candidate := jsonUnescaper.Replace(match[1])
		candidate = html.UnescapeString(candidate)
		if candidate != "" {
			results = append(results, candidate)
		}
	}
	return results
}

var jsonUnescaper = strings.NewReplacer(`\/`, "/", `\u0026`, "&")

// IsMediaURL 判断字符串是否为视频文件URL
// 纯函数,不依赖网络或HTML解析; exts 为空时使用默认扩展名列表
func IsMediaURL(s string, exts []string) bool {
	_, ok := NewMediaMatcher(exts).Match(s)
	return ok
}

// normalizeExtensions 统一扩展名格式: 小写、带前导点、去重、去空
func normalizeExtensions(extensions []string) []string {
	seen := make(map[string]bool, len(extensions))
	result := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		result = append(result, ext)
	}
	return result
}
