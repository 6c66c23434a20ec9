package crawlers

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// NormalizeURL 将URL转换为规范形式,用作已访问集合和视频集合的键
//
// 规则:
//   - scheme和host转为小写
//   - 去掉默认端口(http:80, https:443)
//   - 去掉fragment
//   - 空路径变为 "/"
//   - 解析 "." 和 ".." 路径段
//   - 保留查询字符串和末尾斜杠
func NormalizeURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("URL格式无效: %w", err)
	}
	return normalizeParsed(parsed)
}

func normalizeParsed(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("不支持的协议: %q", u.Scheme)
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname == "" {
		return "", fmt.Errorf("URL缺少主机名")
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	host := hostname
	switch {
	case port != "":
		host = net.JoinHostPort(hostname, port)
	case strings.Contains(hostname, ":"):
		host = "[" + hostname + "]"
	}

	// 以空引用解析自身即可按RFC 3986消除点路径段
	resolved := u.ResolveReference(&url.URL{})
	resolved.Scheme = scheme
	resolved.Host = host
	resolved.Fragment = ""
	resolved.RawFragment = ""
	if resolved.Path == "" {
		resolved.Path = "/"
		resolved.RawPath = ""
	}

	return resolved.String(), nil
}

// resolveLink 将页面中的原始属性值解析为规范化的绝对URL
// 非http(s)链接(mailto:, javascript:, data: 等)返回false
func resolveLink(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	normalized, err := normalizeParsed(base.ResolveReference(ref))
	if err != nil {
		return "", false
	}
	return normalized, true
}

// isInternalHost 判断链接主机是否属于目标站点
// 默认精确匹配(含非默认端口); allowSubdomains为true时同时接受 *.host
func isInternalHost(linkHost, targetHost string, allowSubdomains bool) bool {
	linkHost = strings.ToLower(linkHost)
	targetHost = strings.ToLower(targetHost)

	if linkHost == targetHost {
		return true
	}
	if !allowSubdomains {
		return false
	}

	linkName, targetName := stripPort(linkHost), stripPort(targetHost)
	return strings.HasSuffix(linkName, "."+targetName)
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.Trim(host, "[]")
}
