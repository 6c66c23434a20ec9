package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/schollz/progressbar/v3"
)

// 报告文件名
const (
	CrawlReportFile    = "crawl_report.json"
	VideosFile         = "videos.json"
	FailedFilesFile    = "failed_files.json"
	MarkdownReportFile = "report.md"
)

// Reporter 报告生成器
// 报告写入 <outputDir>/<domain>/reports
type Reporter struct {
	outputDir string
	domain    string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, domain string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		domain:    domain,
	}
}

// ReportsDir 返回报告目录
func (r *Reporter) ReportsDir() string {
	return filepath.Join(r.outputDir, r.domain, "reports")
}

// GenerateReport 生成JSON和Markdown格式的爬取报告
func (r *Reporter) GenerateReport(report *models.CrawlReport) error {
	reportsDir := r.ReportsDir()
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	// 空列表输出为 [] 而不是 null
	if report.Videos == nil {
		report.Videos = []models.FileInfo{}
	}
	if report.FailedFiles == nil {
		report.FailedFiles = []models.FailedFileInfo{}
	}
	if report.FailedPages == nil {
		report.FailedPages = []string{}
	}

	reportJSON, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := r.writeReportFile(reportsDir, CrawlReportFile, reportJSON); err != nil {
		return err
	}
	if err := r.saveJSONReport(reportsDir, VideosFile, report.Videos); err != nil {
		return err
	}
	if err := r.saveJSONReport(reportsDir, FailedFilesFile, report.FailedFiles); err != nil {
		return err
	}
	if err := r.saveMarkdownReport(reportsDir, report); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	return r.writeReportFile(dir, filename, jsonData)
}

func (r *Reporter) writeReportFile(dir string, filename string, content []byte) error {
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// saveMarkdownReport 保存Markdown报告
func (r *Reporter) saveMarkdownReport(dir string, report *models.CrawlReport) error {
	path := filepath.Join(dir, MarkdownReportFile)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建Markdown报告失败: %w", err)
	}
	defer file.Close()

	if err := WriteMarkdownReport(file, report); err != nil {
		return fmt.Errorf("写入Markdown报告失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// WriteMarkdownReport 以Markdown格式输出爬取报告
func WriteMarkdownReport(w io.Writer, report *models.CrawlReport) error {
	md := markdown.NewMarkdown(w)
	stats := report.Stats

	md.H1("VidFindcrack 爬取报告")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"项目", "值"},
		Rows: [][]string{
			{"起始URL", "`" + report.BaseURL + "`"},
			{"域名", report.Domain},
			{"状态", string(report.Status)},
			{"开始时间", report.StartTime.Format("2006-01-02 15:04:05")},
			{"耗时", fmt.Sprintf("%.2f 秒", report.Duration)},
			{"输出目录", "`" + report.OutputDir + "`"},
		},
	})
	md.PlainText("")

	md.H2("统计")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"指标", "数量"},
		Rows: [][]string{
			{"访问页面", strconv.Itoa(stats.VisitedPages)},
			{"失败页面", strconv.Itoa(stats.FailedPages)},
			{"发现视频", strconv.Itoa(stats.VideosFound)},
			{"下载成功", strconv.Itoa(stats.DownloadedFiles)},
			{"已存在跳过", strconv.Itoa(stats.SkippedFiles)},
			{"下载失败", strconv.Itoa(stats.FailedFiles)},
			{"下载总大小", FormatBytes(stats.TotalSize)},
		},
	})
	md.PlainText("")

	writeStatusChart(md, stats)

	switch {
	case report.Status == models.TaskStatusCancelled:
		md.Cautionf("爬取被中断,报告只包含已完成的部分。")
	case stats.FailedFiles > 0:
		md.Warningf("%d 个视频下载失败,详见 %s。", stats.FailedFiles, FailedFilesFile)
	case stats.VideosFound == 0:
		md.Note("没有发现视频。")
	default:
		md.Tip("所有视频均已保存。")
	}
	md.PlainText("")

	md.H2("视频")
	md.PlainText("")
	if len(report.Videos) == 0 {
		md.PlainText("无")
	} else {
		rows := make([][]string, 0, len(report.Videos))
		for _, v := range report.Videos {
			rows = append(rows, []string{
				"`" + filepath.Base(v.FilePath) + "`",
				FormatBytes(v.Size),
				string(v.Status),
				v.URL,
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"文件", "大小", "状态", "URL"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	if len(report.FailedFiles) > 0 {
		md.H2("下载失败")
		md.PlainText("")
		items := make([]string, 0, len(report.FailedFiles))
		for _, f := range report.FailedFiles {
			items = append(items, fmt.Sprintf("%s: %s", f.URL, f.ErrorMsg))
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(report.FailedPages) > 0 {
		md.H2("获取失败的页面")
		md.PlainText("")
		md.BulletList(report.FailedPages...)
		md.PlainText("")
	}

	return md.Build()
}

// writeStatusChart 输出下载结果分布的饼图
func writeStatusChart(md *markdown.Markdown, stats models.TaskStats) {
	if stats.DownloadedFiles+stats.SkippedFiles+stats.FailedFiles == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("下载结果"),
		piechart.WithShowData(true),
	)
	if stats.DownloadedFiles > 0 {
		chart.LabelAndIntValue("下载成功", uint64(stats.DownloadedFiles))
	}
	if stats.SkippedFiles > 0 {
		chart.LabelAndIntValue("已存在", uint64(stats.SkippedFiles))
	}
	if stats.FailedFiles > 0 {
		chart.LabelAndIntValue("失败", uint64(stats.FailedFiles))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
