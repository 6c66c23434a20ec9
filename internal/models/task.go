package models

import (
	"fmt"
	"net/url"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
	TaskStatusCancelled TaskStatus = "cancelled" // 已取消
)

// CrawlMode 页面获取模式
type CrawlMode string

const (
	ModeStatic  CrawlMode = "static"  // HTTP直接获取(Colly)
	ModeDynamic CrawlMode = "dynamic" // 无头浏览器渲染(go-rod)
)

// TaskStats 任务统计
type TaskStats struct {
	VisitedPages    int     `json:"visited_pages"`    // 已访问页面数(含失败)
	FailedPages     int     `json:"failed_pages"`     // 获取失败的页面数
	VideosFound     int     `json:"videos_found"`     // 发现的视频数(去重)
	DownloadedFiles int     `json:"downloaded_files"` // 下载成功的文件数
	SkippedFiles    int     `json:"skipped_files"`    // 本地已存在而跳过的文件数
	FailedFiles     int     `json:"failed_files"`     // 下载失败的文件数
	TotalSize       int64   `json:"total_size"`       // 下载总大小(字节)
	Duration        float64 `json:"duration"`         // 总耗时(秒)
}

// CrawlConfig 爬取配置
// 在爬取开始时一次性传入,爬取期间不可修改
type CrawlConfig struct {
	BaseURL         string    `json:"base_url" mapstructure:"base_url"`                 // 起始URL
	MaxDepth        int       `json:"max_depth" mapstructure:"max_depth"`               // 最大深度 (默认:2, 0表示只爬起始页)
	MaxPages        int       `json:"max_pages" mapstructure:"max_pages"`               // 最大页面数 (默认:1000)
	Mode            CrawlMode `json:"mode" mapstructure:"mode"`                         // 获取模式 (默认:static)
	WaitTime        int       `json:"wait_time" mapstructure:"wait_time"`               // 请求超时/页面等待时间(秒) (默认:10)
	Headless        bool      `json:"headless" mapstructure:"headless"`                 // 无头模式 (默认:true)
	AllowSubdomains bool      `json:"allow_subdomains" mapstructure:"allow_subdomains"` // 是否把子域名视为站内链接 (默认:false)
	MediaExtensions []string  `json:"media_extensions" mapstructure:"media_extensions"` // 识别的视频扩展名

	// 资源限制(仅dynamic模式使用)
	SafetyReserveMemory int `json:"safety_reserve_memory" mapstructure:"safety_reserve_memory"` // 安全保留内存(MB)
	SafetyThreshold     int `json:"safety_threshold" mapstructure:"safety_threshold"`           // 启动浏览器所需的最小可用内存(MB)
	CPULoadThreshold    int `json:"cpu_load_threshold" mapstructure:"cpu_load_threshold"`       // CPU负载阈值(%), >=200表示不检查
}

// Validate 验证配置
// 返回的错误均包装了 ErrInvalidConfig
func (c CrawlConfig) Validate() error {
	if err := ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: 起始URL无效 [%s]: %v", ErrInvalidConfig, c.BaseURL, err)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: 最大深度不能为负数: %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("%w: 最大页面数必须大于等于1: %d", ErrInvalidConfig, c.MaxPages)
	}
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("%w: 等待时间必须在0-60秒之间: %d", ErrInvalidConfig, c.WaitTime)
	}
	switch c.Mode {
	case "", ModeStatic, ModeDynamic:
	default:
		return fmt.Errorf("%w: 无效的获取模式: %s (有效值: static, dynamic)", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// Clone 返回配置的深拷贝,避免调用方修改切片影响正在进行的爬取
func (c CrawlConfig) Clone() CrawlConfig {
	clone := c
	if c.MediaExtensions != nil {
		clone.MediaExtensions = append([]string(nil), c.MediaExtensions...)
	}
	return clone
}

// Timeout 返回请求超时时间
func (c CrawlConfig) Timeout() time.Duration {
	if c.WaitTime <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.WaitTime) * time.Second
}

// CrawlTask 爬取任务
type CrawlTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	BaseURL     string     `json:"base_url"`               // 起始URL
	Domain      string     `json:"domain"`                 // 解析的域名
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config CrawlConfig `json:"config"`

	// 执行状态
	Status TaskStatus `json:"status"`

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewCrawlTask 创建新任务
func NewCrawlTask(config CrawlConfig) (*CrawlTask, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(config.BaseURL)

	return &CrawlTask{
		ID:        generateID(),
		BaseURL:   config.BaseURL,
		Domain:    parsed.Host,
		CreatedAt: time.Now(),
		Config:    config.Clone(),
		Status:    TaskStatusPending,
	}, nil
}

// Start 标记任务开始
func (t *CrawlTask) Start() {
	now := time.Now()
	t.StartedAt = &now
	t.Status = TaskStatusRunning
}

// Finish 标记任务结束,err为nil时视为成功
func (t *CrawlTask) Finish(stats TaskStats, err error) {
	now := time.Now()
	t.CompletedAt = &now
	t.Stats = stats
	switch {
	case err == nil:
		t.Status = TaskStatusCompleted
	case isCancellation(err):
		t.Status = TaskStatusCancelled
		t.ErrorMessage = err.Error()
	default:
		t.Status = TaskStatusFailed
		t.ErrorMessage = err.Error()
	}
}
