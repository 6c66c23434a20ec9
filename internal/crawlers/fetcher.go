package crawlers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Page 页面获取结果
type Page struct {
	URL         string // 请求的URL
	FinalURL    string // 跟随重定向后的URL
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsHTML 判断页面是否需要扫描
// 未声明Content-Type时视为HTML; text/* 和 XHTML 也会被扫描
func (p *Page) IsHTML() bool {
	if strings.TrimSpace(p.ContentType) == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(p.ContentType, ";", 2)[0]))
	}

	switch {
	case mediaType == "application/xhtml+xml":
		return true
	case strings.HasPrefix(mediaType, "text/"):
		return true
	default:
		return false
	}
}

// Fetcher 页面获取器
// StaticFetcher(HTTP) 和 DynamicFetcher(无头浏览器) 的公共接口
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// HTTPStatusError 非2xx响应
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s [%s]", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
