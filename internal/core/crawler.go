package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/VidFindcrack/internal/crawlers"
	"github.com/RecoveryAshes/VidFindcrack/internal/downloader"
	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
)

// Crawler 单个起始URL的任务协调器
// 流程: 爬取视频URL → 下载 → 生成报告
type Crawler struct {
	config    models.CrawlConfig
	task      *models.CrawlTask
	outputDir string

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	quiet bool

	// 用于测试替换页面获取方式
	newFetcher func(models.CrawlConfig, models.HeaderProvider) (crawlers.Fetcher, error)

	media       *models.MediaURLSet
	failedPages []string
	download    *downloader.Result
	stats       models.TaskStats
}

// NewCrawler 创建任务协调器
// 配置无效时返回包装了 models.ErrInvalidConfig 的错误
func NewCrawler(config models.CrawlConfig, outputDir string, headerProvider models.HeaderProvider) (*Crawler, error) {
	task, err := models.NewCrawlTask(config)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		config:         task.Config,
		task:           task,
		outputDir:      outputDir,
		headerProvider: headerProvider,
		newFetcher:     newFetcher,
		media:          models.NewMediaURLSet(),
	}, nil
}

// SetQuiet 关闭下载进度条
func (c *Crawler) SetQuiet(quiet bool) {
	c.quiet = quiet
}

// newFetcher 按模式创建页面获取器
func newFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) (crawlers.Fetcher, error) {
	switch config.Mode {
	case "", models.ModeStatic:
		return crawlers.NewStaticFetcher(config, headerProvider), nil
	case models.ModeDynamic:
		return crawlers.NewDynamicFetcher(config, headerProvider), nil
	default:
		return nil, fmt.Errorf("%w: 无效的获取模式: %s", models.ErrInvalidConfig, config.Mode)
	}
}

// DomainDir 返回该任务的输出目录 <outputDir>/<domain>
func (c *Crawler) DomainDir() string {
	return filepath.Join(c.outputDir, domainDirName(c.task.Domain))
}

// VideosDir 返回视频保存目录
func (c *Crawler) VideosDir() string {
	return filepath.Join(c.DomainDir(), "videos")
}

// 端口中的冒号在部分文件系统上不能作为目录名
func domainDirName(host string) string {
	return strings.ReplaceAll(host, ":", "_")
}

// Crawl 执行任务
// 爬取被取消时跳过下载,仍然生成包含部分结果的报告并返回ctx错误
func (c *Crawler) Crawl(ctx context.Context) error {
	startTime := time.Now()
	c.task.Start()

	utils.Infof("🚀 开始爬取任务 [%s]", c.task.ID)
	utils.Infof("起始URL: %s", c.config.BaseURL)
	utils.Infof("获取模式: %s, 最大深度: %d, 最大页面数: %d", modeName(c.config.Mode), c.config.MaxDepth, c.config.MaxPages)
	utils.Infof("输出目录: %s", c.DomainDir())

	err := c.run(ctx)

	c.stats.Duration = time.Since(startTime).Seconds()
	c.task.Finish(c.stats, err)

	if reportErr := c.writeReport(); reportErr != nil {
		utils.Warnf("生成报告失败: %v", reportErr)
	}

	if err != nil {
		return err
	}

	utils.Infof("✅ 爬取任务完成: 发现 %d 个视频, 下载 %d 个, 耗时 %.2f秒",
		c.stats.VideosFound, c.stats.DownloadedFiles, c.stats.Duration)
	return nil
}

func (c *Crawler) run(ctx context.Context) error {
	fetcher, err := c.newFetcher(c.config, c.headerProvider)
	if err != nil {
		return err
	}
	if closer, ok := fetcher.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				utils.Warnf("关闭页面获取器失败: %v", err)
			}
		}()
	}

	mediaCrawler, err := crawlers.NewMediaCrawler(c.config, fetcher)
	if err != nil {
		return err
	}

	set, crawlErr := mediaCrawler.Crawl(ctx)
	if set != nil {
		c.media = set
	}
	c.failedPages = mediaCrawler.FailedPages()
	c.stats = mediaCrawler.GetStats()
	if crawlErr != nil {
		return crawlErr
	}

	dl := downloader.New(c.VideosDir(),
		downloader.WithHeaderProvider(c.headerProvider),
		downloader.WithMediaExtensions(c.config.MediaExtensions),
		downloader.WithTimeout(c.config.Timeout()),
		downloader.WithQuiet(c.quiet),
	)

	result, dlErr := dl.DownloadAll(ctx, c.media)
	c.download = result
	if result != nil {
		c.stats.DownloadedFiles = result.Downloaded
		c.stats.SkippedFiles = result.Skipped
		c.stats.FailedFiles = result.Failed
		c.stats.TotalSize = result.TotalSize
		if result.Err != nil {
			utils.Debugf("下载错误汇总: %v", result.Err)
		}
	}
	return dlErr
}

// writeReport 生成JSON和Markdown报告
func (c *Crawler) writeReport() error {
	report := c.BuildReport()
	return utils.NewReporter(c.outputDir, domainDirName(c.task.Domain)).GenerateReport(report)
}

// BuildReport 根据当前任务状态构建报告
func (c *Crawler) BuildReport() *models.CrawlReport {
	report := &models.CrawlReport{
		TaskID:      c.task.ID,
		BaseURL:     c.config.BaseURL,
		Domain:      c.task.Domain,
		Status:      c.task.Status,
		Duration:    c.stats.Duration,
		Stats:       c.stats,
		FailedPages: append([]string(nil), c.failedPages...),
		OutputDir:   c.DomainDir(),
		Config:      c.config,
	}
	if c.task.StartedAt != nil {
		report.StartTime = *c.task.StartedAt
	}
	if c.task.CompletedAt != nil {
		report.EndTime = *c.task.CompletedAt
	}

	if c.download != nil {
		for _, file := range c.download.Files {
			if file.Status == models.DownloadStatusFailed {
				report.FailedFiles = append(report.FailedFiles, models.FailedFileInfo{
					URL:       file.URL,
					SourceURL: file.SourceURL,
					ErrorMsg:  file.Error,
				})
				continue
			}
			report.Videos = append(report.Videos, models.FileInfo{
				URL:          file.URL,
				SourceURL:    file.SourceURL,
				FilePath:     file.FilePath,
				Size:         file.Size,
				Hash:         file.Hash,
				Status:       file.Status,
				DownloadedAt: file.DownloadedAt,
			})
		}
		return report
	}

	// 没有进入下载阶段时只列出发现的URL
	for _, u := range c.media.URLs() {
		report.Videos = append(report.Videos, models.FileInfo{
			URL:       u,
			SourceURL: c.media.Source(u),
		})
	}
	return report
}

// GetStats 获取统计信息
func (c *Crawler) GetStats() models.TaskStats {
	return c.stats
}

// DownloadErrors 返回所有单文件下载错误,没有失败时为nil
func (c *Crawler) DownloadErrors() error {
	if c.download == nil {
		return nil
	}
	return c.download.Err
}

// Task 返回任务信息
func (c *Crawler) Task() *models.CrawlTask {
	return c.task
}

func modeName(mode models.CrawlMode) string {
	if mode == "" {
		return string(models.ModeStatic)
	}
	return string(mode)
}

// IsCancelled 判断错误是否由ctx取消导致
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
