package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrInsufficientResources 系统资源不足,拒绝启动浏览器
var ErrInsufficientResources = errors.New("系统资源不足")

// DynamicFetcher 动态页面获取器(使用Rod)
// 首次Fetch时启动浏览器,返回渲染后的DOM
type DynamicFetcher struct {
	browser *rod.Browser
	config  models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 启动前的资源检查
	resourceMonitor *ResourceMonitor
}

// NewDynamicFetcher 创建动态页面获取器
func NewDynamicFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *DynamicFetcher {
	return &DynamicFetcher{
		config:         config,
		headerProvider: headerProvider,
		resourceMonitor: NewResourceMonitor(ResourceMonitorConfig{
			SafetyReserveMemory: int64(config.SafetyReserveMemory) * 1024 * 1024, // MB转字节
			SafetyThreshold:     int64(config.SafetyThreshold) * 1024 * 1024,
			CPULoadThreshold:    config.CPULoadThreshold,
		}),
	}
}

// launchBrowser 启动浏览器
func (df *DynamicFetcher) launchBrowser() error {
	if canLaunch, reason := df.resourceMonitor.CheckResourceAvailability(); !canLaunch {
		return fmt.Errorf("%w: %s", ErrInsufficientResources, reason)
	}

	// 配置launcher
	l := launcher.New().Headless(df.config.Headless)

	// 添加证书忽略参数,允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")
	utils.Debugf("浏览器启动参数: --ignore-certificate-errors (跳过TLS证书验证)")

	// 启动浏览器
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	// 连接到浏览器
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	df.browser = browser
	utils.Warnf("浏览器已配置为跳过HTTPS证书验证,适用于内网/开发环境的自签名证书")
	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// Fetch 在新标签页中打开URL,等待加载和wait_time后返回渲染后的HTML
func (df *DynamicFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if df.browser == nil {
		if err := df.launchBrowser(); err != nil {
			return nil, err
		}
	}

	tab, err := df.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}
	defer func() {
		if closeErr := tab.Close(); closeErr != nil {
			utils.Debugf("关闭标签页失败: %v", closeErr)
		}
	}()

	// 导航和加载共用超时,额外等待时间单独计算
	page := tab.Context(ctx).Timeout(df.config.Timeout())

	if err := df.applyHeaders(page); err != nil {
		utils.Warnf("设置HTTP头部失败: %v", err)
	}

	// 记录主文档的响应状态
	var (
		mu       sync.Mutex
		document *proto.NetworkResponse
	)
	eventCtx, cancelEvents := context.WithCancel(ctx)
	defer cancelEvents()
	waitEvents := tab.Context(eventCtx).EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type != proto.NetworkResourceTypeDocument {
			return
		}
		mu.Lock()
		if document == nil {
			document = e.Response
		}
		mu.Unlock()
	})
	go waitEvents()

	utils.Debugf("访问页面: %s", pageURL)

	// 导航到目标URL
	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("导航失败 [%s]: %w", pageURL, err)
	}

	// 等待页面加载
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("等待页面加载失败 [%s]: %w", pageURL, err)
	}

	// 额外等待时间(等待动态内容加载)
	if wait := time.Duration(df.config.WaitTime) * time.Second; wait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	content, err := tab.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("读取页面内容失败 [%s]: %w", pageURL, err)
	}

	result := &Page{
		URL:        pageURL,
		FinalURL:   pageURL,
		StatusCode: 200,
		Body:       []byte(content),
	}
	if info, err := tab.Info(); err == nil && info.URL != "" {
		result.FinalURL = info.URL
	}

	mu.Lock()
	if document != nil {
		result.StatusCode = document.Status
		result.ContentType = document.MIMEType
	}
	mu.Unlock()

	if result.StatusCode < 200 || result.StatusCode > 299 {
		return result, &HTTPStatusError{URL: pageURL, StatusCode: result.StatusCode}
	}

	utils.Debugf("页面加载完成: %s", pageURL)
	return result, nil
}

// applyHeaders 将自定义HTTP头部应用到标签页
func (df *DynamicFetcher) applyHeaders(page *rod.Page) error {
	if df.headerProvider == nil {
		return nil
	}

	headers, err := df.headerProvider.GetHeaders()
	if err != nil {
		return err
	}

	dict := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if len(values) > 0 {
			dict = append(dict, name, values[0])
		}
	}
	if len(dict) == 0 {
		return nil
	}

	_, err = page.SetExtraHeaders(dict)
	return err
}

// Close 关闭浏览器
func (df *DynamicFetcher) Close() error {
	if df.browser == nil {
		return nil
	}
	err := df.browser.Close()
	df.browser = nil
	utils.Debugf("浏览器已关闭")
	return err
}
