package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// ExtractedLinks 单个页面的提取结果
type ExtractedLinks struct {
	// 站内页面链接(已规范化,已去重,按出现顺序)
	Pages []string

	// 视频URL(已规范化,已去重,按出现顺序),可能属于外部域名
	Media []string
}

// URLExtractor URL提取器
// 职责: 从页面HTML中提取站内页面链接和视频URL
type URLExtractor struct {
	// 目标主机(规范化后的host,可能带非默认端口)
	targetHost string

	// 是否把子域名视为站内
	allowSubdomains bool

	// 视频URL匹配器
	matcher *MediaMatcher
}

// NewURLExtractor 创建URL提取器实例
func NewURLExtractor(targetHost string, allowSubdomains bool, matcher *MediaMatcher) *URLExtractor {
	if matcher == nil {
		matcher = NewMediaMatcher(nil)
	}
	return &URLExtractor{
		targetHost:      strings.ToLower(targetHost),
		allowSubdomains: allowSubdomains,
		matcher:         matcher,
	}
}

// rawLinks 遍历DOM时收集的原始属性值,待<base>确定后统一解析
type rawLinks struct {
	baseHref string
	pages    []string
	media    []string
}

// ExtractFromHTML 从HTML字符串提取链接
//
// 页面链接: <a>/<area> 的 href, <iframe>/<frame> 的 src
// 视频候选: 任意元素的 href/src/data-src, 以及原始文本中引号包裹的视频URL
// 视频URL不会作为页面加入结果
func (e *URLExtractor) ExtractFromHTML(htmlContent string, pageURL string) (*ExtractedLinks, error) {
	// 解析HTML
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	// 解析pageURL
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("解析页面URL失败: %w", err)
	}

	raw := &rawLinks{}
	collectLinks(doc, raw)

	if raw.baseHref != "" {
		if ref, err := url.Parse(strings.TrimSpace(raw.baseHref)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	result := &ExtractedLinks{}
	seenMedia := make(map[string]bool)
	addMedia := func(candidate string, resolveBase *url.URL) {
		link, ok := resolveLink(resolveBase, candidate)
		if !ok || seenMedia[link] {
			return
		}
		if _, isMedia := e.matcher.Match(link); !isMedia {
			return
		}
		seenMedia[link] = true
		result.Media = append(result.Media, link)
	}

	for _, candidate := range raw.media {
		addMedia(candidate, base)
	}
	for _, candidate := range e.matcher.FindQuoted(htmlContent) {
		addMedia(candidate, base)
	}

	seenPages := make(map[string]bool)
	for _, candidate := range raw.pages {
		link, ok := resolveLink(base, candidate)
		if !ok || seenPages[link] {
			continue
		}
		if _, isMedia := e.matcher.Match(link); isMedia {
			continue
		}
		if follow, reason := e.ShouldFollowLink(link); !follow {
			log.Debug().Str("url", link).Msgf("链接已过滤: %s", reason)
			continue
		}
		seenPages[link] = true
		result.Pages = append(result.Pages, link)
	}

	return result, nil
}

// collectLinks 递归遍历DOM,收集原始属性值
func collectLinks(n *html.Node, raw *rawLinks) {
	if n.Type == html.ElementNode {
		tag := strings.ToLower(n.Data)
		for _, attr := range n.Attr {
			key := strings.ToLower(attr.Key)
			switch key {
			case "href", "src", "data-src":
				raw.media = append(raw.media, attr.Val)
			}

			switch {
			case tag == "base" && key == "href" && raw.baseHref == "":
				raw.baseHref = attr.Val
			case (tag == "a" || tag == "area") && key == "href":
				raw.pages = append(raw.pages, attr.Val)
			case (tag == "iframe" || tag == "frame") && key == "src":
				raw.pages = append(raw.pages, attr.Val)
			}
		}
	}

	// 递归处理子节点
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLinks(c, raw)
	}
}

// ShouldFollowLink 判断链接是否应该作为页面跟随
// 返回是否跟随及不跟随的原因; 深度和已访问检查由URLQueue负责
func (e *URLExtractor) ShouldFollowLink(linkURL string) (bool, string) {
	// 解析URL
	parsedURL, err := url.Parse(linkURL)
	if err != nil {
		return false, "URL格式无效"
	}

	// 检查协议
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, "不支持的协议"
	}

	// 检查是否站内
	if !isInternalHost(parsedURL.Host, e.targetHost, e.allowSubdomains) {
		return false, fmt.Sprintf("外部链接 (目标域: %s)", e.targetHost)
	}

	return true, ""
}
