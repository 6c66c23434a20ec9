package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// BatchCrawler 批量爬取器
// 按顺序为每个起始URL运行一次 Crawler
type BatchCrawler struct {
	config         models.CrawlConfig
	outputDir      string
	batchDelay     time.Duration
	continueOnErr  bool
	quiet          bool
	headerProvider models.HeaderProvider
}

// BatchResult 单个URL的结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Stats       models.TaskStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量爬取摘要
type BatchSummary struct {
	TotalURLs       int
	SuccessCount    int
	FailCount       int
	VideosFound     int
	DownloadedFiles int
	TotalSize       int64
	TotalDuration   float64
	Results         []BatchResult
}

// NewBatchCrawler 创建批量爬取器
// config.BaseURL 会被每个URL覆盖
func NewBatchCrawler(config models.CrawlConfig, outputDir string, batchDelay int, continueOnErr bool, headerProvider models.HeaderProvider) *BatchCrawler {
	return &BatchCrawler{
		config:         config.Clone(),
		outputDir:      outputDir,
		batchDelay:     time.Duration(batchDelay) * time.Second,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
	}
}

// SetQuiet 关闭进度条
func (bc *BatchCrawler) SetQuiet(quiet bool) {
	bc.quiet = quiet
}

// CrawlBatch 批量爬取URL列表
// 只有ctx被取消时返回错误,此时摘要包含已处理的部分
func (bc *BatchCrawler) CrawlBatch(ctx context.Context, urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量爬取: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	startTime := time.Now()
	defer func() {
		summary.TotalDuration = time.Since(startTime).Seconds()
		bc.printSummary(summary)
	}()

	var bar *progressbar.ProgressBar
	if !bc.quiet {
		bar = utils.NewProgressBar(len(urls), "批量爬取")
	}

	for i, targetURL := range urls {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("批量爬取中断: %w", err)
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("起始URL: %s", targetURL)

		result := bc.crawlSingleURL(ctx, targetURL)
		summary.Results = append(summary.Results, result)
		if bar != nil {
			bar.Add(1)
		}

		summary.VideosFound += result.Stats.VideosFound
		summary.DownloadedFiles += result.Stats.DownloadedFiles
		summary.TotalSize += result.Stats.TotalSize

		if result.Success {
			summary.SuccessCount++
		} else {
			summary.FailCount++
			if IsCancelled(result.Error) {
				return summary, fmt.Errorf("批量爬取中断: %w", result.Error)
			}
			utils.Errorf("❌ 爬取失败: %v", result.Error)

			if !bc.continueOnErr {
				utils.Warn("批量爬取中止 (--continue-on-error=false)")
				break
			}
		}

		// 最后一个URL不需要延迟
		if i < len(urls)-1 && bc.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", bc.batchDelay.Seconds())
			select {
			case <-ctx.Done():
				return summary, fmt.Errorf("批量爬取中断: %w", ctx.Err())
			case <-time.After(bc.batchDelay):
			}
		}
	}

	if bar != nil {
		bar.Finish()
	}
	return summary, nil
}

// crawlSingleURL 爬取单个URL
func (bc *BatchCrawler) crawlSingleURL(ctx context.Context, targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}
	startTime := time.Now()

	config := bc.config.Clone()
	config.BaseURL = targetURL

	crawler, err := NewCrawler(config, bc.outputDir, bc.headerProvider)
	if err != nil {
		result.Error = fmt.Errorf("创建爬取器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}
	crawler.SetQuiet(bc.quiet)

	err = crawler.Crawl(ctx)
	result.Stats = crawler.GetStats()
	result.Duration = time.Since(startTime).Seconds()
	if err != nil {
		result.Error = fmt.Errorf("爬取失败: %w", err)
		return result
	}

	result.Success = true
	return result
}

// printSummary 打印批量爬取摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量爬取摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("🎬 发现视频: %d", summary.VideosFound)
	utils.Infof("📥 下载成功: %d", summary.DownloadedFiles)
	utils.Infof("📦 总大小: %s", utils.FormatBytes(summary.TotalSize))
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
