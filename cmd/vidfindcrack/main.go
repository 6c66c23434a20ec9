package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/VidFindcrack/internal/core"
	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	logLevel   string
	quiet      bool

	// HTTP头部参数
	headers        []string
	validateConfig bool

	// 爬取参数
	targetURL       string
	urlFile         string
	depth           int
	maxPages        int
	waitTime        int
	mode            string
	headless        bool
	allowSubdomains bool
	extensions      []string
	outputDir       string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

// 由 PersistentPreRunE 加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "vidfindcrack",
	Short: "站内视频文件爬取和下载工具",
	Long: `VidFindcrack - 站内视频文件爬取和下载工具

从起始URL出发,按广度优先遍历同域页面,提取页面中的视频文件链接并下载到本地:
  • 深度和页面数双重限制
  • 从 href/src 属性和内联播放器配置中识别视频URL
  • 静态(HTTP)和动态(无头浏览器)两种获取模式
  • 批量URL处理
  • 自定义HTTP请求头
  • JSON和Markdown格式报告

示例:
  vidfindcrack -u https://example.com -d 3 -p 200
  vidfindcrack -u https://example.com -H "Cookie: session=xxx" -o downloads
  vidfindcrack -f urls.txt --batch-delay 5
  vidfindcrack --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = config

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
			Quiet:      quiet,
		}
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if config.File != "" {
			utils.Debugf("使用配置文件: %s", config.File)
		}
		return nil
	},
	RunE: runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	headerManager, err := core.NewHeaderManager(appConfig.HTTP.Headers, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	if validateConfig {
		return runValidateConfig(headerManager)
	}

	crawlConfig := buildCrawlConfig(cmd)
	if crawlConfig.BaseURL == "" && urlFile == "" {
		return cmd.Help()
	}

	baseDir := appConfig.Output.BaseDir
	if cmd.Flags().Changed("output") {
		baseDir = outputDir
	}

	if err := ValidateFlags(crawlConfig, urlFile); err != nil {
		return err
	}

	// Ctrl+C 在页面/文件之间停止,已完成的部分仍会写入报告
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if urlFile != "" {
		urls, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return fmt.Errorf("读取URL文件失败: %w", err)
		}

		batchCrawler := core.NewBatchCrawler(crawlConfig, baseDir, batchDelay, continueOnError, headerManager)
		batchCrawler.SetQuiet(quiet)

		if _, err := batchCrawler.CrawlBatch(ctx, urls); err != nil {
			if core.IsCancelled(err) {
				utils.Warnf("收到中断信号,批量爬取已停止")
				return nil
			}
			return fmt.Errorf("批量爬取失败: %w", err)
		}

		utils.Info("✨ 批量爬取任务完成!")
		return nil
	}

	crawler, err := core.NewCrawler(crawlConfig, baseDir, headerManager)
	if err != nil {
		return fmt.Errorf("创建爬取器失败: %w", err)
	}
	crawler.SetQuiet(quiet)

	crawlErr := crawler.Crawl(ctx)
	printStats(crawler.GetStats(), crawler.DomainDir())

	if dlErr := crawler.DownloadErrors(); dlErr != nil {
		utils.Warnf("任务 %s 有视频下载失败,详见 failed_files.json: %v", crawler.Task().ID, dlErr)
	}

	if crawlErr != nil {
		if core.IsCancelled(crawlErr) {
			utils.Warnf("收到中断信号,已保存部分结果")
			return nil
		}
		return fmt.Errorf("爬取失败: %w", crawlErr)
	}

	utils.Info("✨ 爬取任务完成!")
	return nil
}

// buildCrawlConfig 以配置文件为基础,应用显式指定的命令行参数
// 未指定 -u 时沿用配置文件中的 crawl.base_url
func buildCrawlConfig(cmd *cobra.Command) models.CrawlConfig {
	config := appConfig.CrawlConfig()
	flags := cmd.Flags()

	if flags.Changed("url") {
		config.BaseURL = targetURL
	}
	if flags.Changed("depth") {
		config.MaxDepth = depth
	}
	if flags.Changed("max-pages") {
		config.MaxPages = maxPages
	}
	if flags.Changed("wait") {
		config.WaitTime = waitTime
	}
	if flags.Changed("mode") {
		config.Mode = models.CrawlMode(mode)
	}
	if flags.Changed("headless") {
		config.Headless = headless
	}
	if flags.Changed("allow-subdomains") {
		config.AllowSubdomains = allowSubdomains
	}
	if flags.Changed("ext") {
		config.MediaExtensions = append([]string(nil), extensions...)
	}
	return config
}

// runValidateConfig 验证HTTP头部配置并输出脱敏后的结果
func runValidateConfig(headerManager *core.HeaderManager) error {
	utils.Info("🔍 验证HTTP头部配置...")
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

// printStats 输出运行摘要
func printStats(stats models.TaskStats, outputDir string) {
	fmt.Println("==================================================")
	fmt.Println("📊 爬取统计")
	fmt.Println("==================================================")
	fmt.Printf("✅ 访问页面数: %d (失败 %d)\n", stats.VisitedPages, stats.FailedPages)
	fmt.Printf("🎬 发现视频数: %d\n", stats.VideosFound)
	fmt.Printf("📥 下载成功: %d\n", stats.DownloadedFiles)
	fmt.Printf("⏭️  已存在跳过: %d\n", stats.SkippedFiles)
	fmt.Printf("❌ 下载失败: %d\n", stats.FailedFiles)
	fmt.Printf("📦 总大小: %s\n", utils.FormatBytes(stats.TotalSize))
	fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
	fmt.Printf("📁 输出目录: %s\n", outputDir)
	fmt.Println("==================================================")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	// 不需要加载配置和日志
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("VidFindcrack %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认搜索 ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "安静模式: 关闭进度条,控制台只输出警告和错误")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件中的HTTP头部")

	addCrawlFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(doctorCmd)
}

// addCrawlFlags 注册爬取和批量处理参数
func addCrawlFlags(cmd *cobra.Command) {
	// 爬取参数
	cmd.Flags().StringVarP(&targetURL, "url", "u", "", "起始URL (未指定时使用配置文件中的 crawl.base_url)")
	cmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含起始URL列表的文件路径")
	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "最大爬取深度 (0表示只爬起始页)")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "p", 1000, "最大页面数")
	cmd.Flags().IntVarP(&waitTime, "wait", "w", 10, "请求超时/页面等待时间(秒)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "static", "获取模式 (static|dynamic)")
	cmd.Flags().BoolVar(&headless, "headless", true, "dynamic模式使用无头浏览器")
	cmd.Flags().BoolVar(&allowSubdomains, "allow-subdomains", false, "把子域名视为站内链接")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "识别的视频扩展名,如 --ext .mp4,.webm")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "videos", "输出目录")

	// 批量处理参数
	cmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理URL间延迟(秒)")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
