package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// 响应结果在colly.Context中的键
const pageContextKey = "vidfindcrack_page"

// StaticFetcher 静态页面获取器(使用Colly)
// 同步模式,每次Fetch只发起一个请求
type StaticFetcher struct {
	collector *colly.Collector
	config    models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建静态页面获取器
func NewStaticFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *StaticFetcher {
	// 已访问判断由URLQueue负责,Colly必须允许重复访问
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)

	// 跳过证书验证,允许访问自签名、过期或主机名不匹配的HTTPS站点
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	})
	c.SetRequestTimeout(config.Timeout())
	utils.Debugf("静态获取器: HTTP超时设置为 %d 秒, TLS证书验证已禁用", int(config.Timeout().Seconds()))

	sf := &StaticFetcher{
		collector:      c,
		config:         config,
		headerProvider: headerProvider,
	}

	sf.setupCallbacks()

	return sf
}

// setupCallbacks 设置Colly回调
func (sf *StaticFetcher) setupCallbacks() {
	// 访问前: 应用自定义HTTP头部
	sf.collector.OnRequest(func(r *colly.Request) {
		if sf.headerProvider != nil {
			headers, err := sf.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}

		utils.Debugf("访问: %s", r.URL.String())
	})

	// 处理响应(包括非2xx,状态码由Fetch判断)
	sf.collector.OnResponse(func(r *colly.Response) {
		requestURL := r.Request.URL.String()
		contentEncoding := r.Headers.Get("Content-Encoding")

		body := r.Body
		if contentEncoding != "" {
			decompressed, err := decompressResponse(contentEncoding, r.Body)
			if err != nil {
				// 解压失败,仍然使用原始body
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", requestURL, contentEncoding, err)
			} else {
				body = decompressed
			}
		}

		r.Ctx.Put(pageContextKey, &Page{
			FinalURL:    requestURL,
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        body,
		})
	})
}

// Fetch 获取页面
// 网络错误返回原始错误,非2xx响应返回 *HTTPStatusError
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	requestCtx := colly.NewContext()
	if err := sf.collector.Request(http.MethodGet, pageURL, nil, requestCtx, nil); err != nil {
		return nil, fmt.Errorf("请求失败 [%s]: %w", pageURL, err)
	}

	page, ok := requestCtx.GetAny(pageContextKey).(*Page)
	if !ok || page == nil {
		return nil, fmt.Errorf("未收到响应 [%s]", pageURL)
	}
	page.URL = pageURL

	if page.StatusCode < 200 || page.StatusCode > 299 {
		return page, &HTTPStatusError{URL: pageURL, StatusCode: page.StatusCode}
	}

	return page, nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
// Colly已自动解开的gzip响应(无gzip魔数)原样返回
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip", "x-gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
