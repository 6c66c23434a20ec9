package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
)

// MediaCrawler 视频URL爬取器
// 从起始URL开始按广度优先遍历站内页面,收集视频URL
type MediaCrawler struct {
	config  models.CrawlConfig
	fetcher Fetcher

	// 规范化后的起始URL
	baseURL string

	extractor *URLExtractor
	urlQueue  *URLQueue

	// 爬取结果
	media       *models.MediaURLSet
	failedPages []string
	stats       models.TaskStats
}

// NewMediaCrawler 创建视频URL爬取器
// 配置无效时返回包装了 models.ErrInvalidConfig 的错误,不会发起任何请求
func NewMediaCrawler(config models.CrawlConfig, fetcher Fetcher) (*MediaCrawler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: 未提供页面获取器", models.ErrInvalidConfig)
	}

	baseURL, err := NormalizeURL(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: 起始URL无效 [%s]: %v", models.ErrInvalidConfig, config.BaseURL, err)
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: 解析起始URL失败: %v", models.ErrInvalidConfig, err)
	}

	config = config.Clone()

	return &MediaCrawler{
		config:    config,
		fetcher:   fetcher,
		baseURL:   baseURL,
		extractor: NewURLExtractor(parsed.Host, config.AllowSubdomains, NewMediaMatcher(config.MediaExtensions)),
		urlQueue:  NewURLQueue(config.MaxDepth),
		media:     models.NewMediaURLSet(),
	}, nil
}

// Crawl 开始爬取
//
// 遍历在以下任一条件满足时结束: 队列为空、已获取页面数达到 MaxPages、ctx被取消。
// ctx被取消时返回已收集的部分结果以及 ctx.Err()。
// 单个页面获取或解析失败只记录日志,不影响整体爬取。
func (mc *MediaCrawler) Crawl(ctx context.Context) (*models.MediaURLSet, error) {
	startTime := time.Now()
	defer func() {
		mc.stats.Duration = time.Since(startTime).Seconds()
	}()

	utils.Infof("🔍 开始爬取: %s", mc.baseURL)
	utils.Infof("最大深度: %d, 最大页面数: %d", mc.config.MaxDepth, mc.config.MaxPages)

	if err := mc.urlQueue.Push(mc.baseURL, 0, ""); err != nil {
		return mc.media, fmt.Errorf("添加入口URL失败: %w", err)
	}

	fetched := 0
	for fetched < mc.config.MaxPages {
		if err := ctx.Err(); err != nil {
			utils.Warnf("爬取被中断,已访问 %d 个页面", fetched)
			return mc.media, fmt.Errorf("爬取中断: %w", err)
		}

		item, ok := mc.urlQueue.Pop()
		if !ok {
			break
		}
		if mc.urlQueue.IsVisited(item.URL) {
			continue
		}

		fetched++
		page, err := mc.fetcher.Fetch(ctx, item.URL)
		mc.urlQueue.MarkVisited(item.URL)
		mc.stats.VisitedPages = fetched

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				utils.Warnf("爬取被中断,已访问 %d 个页面", fetched)
				return mc.media, fmt.Errorf("爬取中断: %w", ctxErr)
			}
			mc.recordFailure(item.URL, err)
			continue
		}

		mc.processPage(item, page)

		if fetched%10 == 0 {
			utils.Infof("进度: 已访问 %d 个页面, 待访问 %d 个, 发现视频 %d 个",
				fetched, mc.urlQueue.PendingCount(), mc.media.Len())
		}
	}

	if mc.urlQueue.PendingCount() > 0 {
		utils.Infof("已达到最大页面数 %d,剩余 %d 个页面未访问", mc.config.MaxPages, mc.urlQueue.PendingCount())
	}

	utils.Infof("✅ 爬取完成: 访问页面 %d 个, 失败 %d 个, 发现视频 %d 个",
		mc.stats.VisitedPages, mc.stats.FailedPages, mc.media.Len())
	utils.Debugf("已访问URL(含重定向目标): %d 个", mc.urlQueue.VisitedCount())

	return mc.media, nil
}

// processPage 扫描页面,记录视频URL并把站内链接加入队列
func (mc *MediaCrawler) processPage(item models.URLItem, page *Page) {
	pageURL := item.URL

	// 跟随重定向后的地址也视为已访问,以免重复获取
	if page.FinalURL != "" {
		if finalURL, err := NormalizeURL(page.FinalURL); err == nil && finalURL != item.URL {
			utils.Debugf("重定向: %s -> %s", item.URL, finalURL)
			mc.urlQueue.MarkVisited(finalURL)
			pageURL = finalURL
		}
	}

	if !page.IsHTML() {
		utils.Debugf("跳过非HTML页面 [%s]: %s", pageURL, page.ContentType)
		return
	}

	links, err := mc.extractor.ExtractFromHTML(string(page.Body), pageURL)
	if err != nil {
		mc.recordFailure(item.URL, err)
		return
	}

	for _, mediaURL := range links.Media {
		if mc.media.Add(mediaURL, item.URL) {
			mc.stats.VideosFound = mc.media.Len()
			utils.Infof("🎬 发现视频: %s", mediaURL)
		}
	}

	nextDepth := item.Depth + 1
	if nextDepth > mc.config.MaxDepth {
		return
	}

	queued := 0
	for _, link := range links.Pages {
		if err := mc.urlQueue.Push(link, nextDepth, item.URL); err == nil {
			queued++
		}
	}
	if queued > 0 {
		utils.Debugf("从页面提取了 %d 个链接: %s (深度: %d)", queued, pageURL, nextDepth)
	}
}

// recordFailure 记录页面失败
func (mc *MediaCrawler) recordFailure(pageURL string, err error) {
	mc.stats.FailedPages++
	mc.failedPages = append(mc.failedPages, pageURL)

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		utils.Warnf("页面返回错误状态 [%s]: HTTP %d", pageURL, statusErr.StatusCode)
		return
	}
	utils.Warnf("获取页面失败 [%s]: %v", pageURL, err)
}

// GetStats 获取统计信息
func (mc *MediaCrawler) GetStats() models.TaskStats {
	return mc.stats
}

// FailedPages 返回获取或解析失败的页面
func (mc *MediaCrawler) FailedPages() []string {
	return append([]string(nil), mc.failedPages...)
}
