package models

import (
	"encoding/json"
	"time"
)

// CrawlReport 爬取报告
type CrawlReport struct {
	// 任务信息
	TaskID  string     `json:"task_id"`
	BaseURL string     `json:"base_url"`
	Domain  string     `json:"domain"`
	Status  TaskStatus `json:"status"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 文件列表
	Videos      []FileInfo       `json:"videos"`       // 下载成功或已存在的视频
	FailedFiles []FailedFileInfo `json:"failed_files"` // 下载失败的视频
	FailedPages []string         `json:"failed_pages"` // 获取失败的页面

	// 输出路径
	OutputDir string `json:"output_dir"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// FileInfo 文件信息
type FileInfo struct {
	URL          string         `json:"url"`
	SourceURL    string         `json:"source_url"`
	FilePath     string         `json:"file_path"`
	Size         int64          `json:"size"`
	Hash         string         `json:"hash,omitempty"`
	Status       DownloadStatus `json:"status"`
	DownloadedAt time.Time      `json:"downloaded_at"`
}

// FailedFileInfo 失败文件信息
type FailedFileInfo struct {
	URL       string `json:"url"`
	SourceURL string `json:"source_url"`
	ErrorMsg  string `json:"error_msg"`
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
