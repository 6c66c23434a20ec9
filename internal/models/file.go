package models

import "time"

// DefaultMediaExtensions 默认识别的视频文件扩展名
var DefaultMediaExtensions = []string{
	".mp4",
	".webm",
	".m4v",
	".mkv",
	".mov",
	".flv",
	".avi",
	".ogv",
	".wmv",
}

// DownloadStatus 下载状态
type DownloadStatus string

const (
	DownloadStatusDownloaded DownloadStatus = "downloaded" // 下载成功
	DownloadStatusSkipped    DownloadStatus = "skipped"    // 本地已存在
	DownloadStatusFailed     DownloadStatus = "failed"     // 下载失败
)

// VideoFile 一次视频下载的结果
type VideoFile struct {
	// 标识信息
	ID       string `json:"id"`        // 唯一ID
	URL      string `json:"url"`       // 视频URL
	FilePath string `json:"file_path"` // 本地存储路径

	// 元数据
	Hash        string `json:"hash,omitempty"`         // SHA-256哈希值
	Size        int64  `json:"size"`                   // 文件大小(字节)
	Extension   string `json:"extension"`              // 扩展名(.mp4, .webm...)
	ContentType string `json:"content_type,omitempty"` // HTTP Content-Type

	// 来源信息
	SourceURL string `json:"source_url"` // 发现该视频的页面URL

	// 状态
	Status DownloadStatus `json:"status"`
	Error  string         `json:"error,omitempty"`

	DownloadedAt time.Time `json:"downloaded_at"`
}

// NewVideoFile 创建待下载的视频记录
func NewVideoFile(videoURL, sourceURL string) *VideoFile {
	return &VideoFile{
		ID:        generateID(),
		URL:       videoURL,
		SourceURL: sourceURL,
	}
}

