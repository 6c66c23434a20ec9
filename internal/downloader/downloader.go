// Package downloader 把爬取到的视频URL下载到本地目录
package downloader

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/VidFindcrack/internal/crawlers"
	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
)

// 文件名中不允许出现的字符
var unsafeFilenameChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", "\x00", "_",
)

// Downloader 视频下载器
// 顺序下载,每个文件先写入同目录的临时文件,成功后再重命名
type Downloader struct {
	outputDir string
	client    *http.Client

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	matcher *crawlers.MediaMatcher
	quiet   bool

	// 本次运行已分配的文件名 -> URL
	assigned map[string]string
}

// Option 下载器选项
type Option func(*Downloader)

// WithHeaderProvider 为下载请求附加自定义HTTP头部
func WithHeaderProvider(provider models.HeaderProvider) Option {
	return func(d *Downloader) {
		d.headerProvider = provider
	}
}

// WithMediaExtensions 指定补全文件扩展名时使用的视频扩展名列表
func WithMediaExtensions(exts []string) Option {
	return func(d *Downloader) {
		d.matcher = crawlers.NewMediaMatcher(exts)
	}
}

// WithQuiet 关闭进度条
func WithQuiet(quiet bool) Option {
	return func(d *Downloader) {
		d.quiet = quiet
	}
}

// WithTimeout 设置等待响应头的超时时间,不限制下载总时长
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		if transport, ok := d.client.Transport.(*http.Transport); ok && timeout > 0 {
			transport.ResponseHeaderTimeout = timeout
		}
	}
}

// New 创建下载器
func New(outputDir string, opts ...Option) *Downloader {
	d := &Downloader{
		outputDir: outputDir,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, // 与爬取阶段保持一致,允许自签名证书
				},
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		matcher:  crawlers.NewMediaMatcher(nil),
		assigned: make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result 批量下载结果
type Result struct {
	Files      []*models.VideoFile
	Downloaded int
	Skipped    int
	Failed     int
	TotalSize  int64

	// 所有单文件错误(multierror),没有失败时为nil
	Err error
}

// DownloadAll 按URL字典序下载集合中的全部视频
//
// 单个文件失败只记录并继续,汇总在 Result.Err 中。
// 返回的error只表示无法继续的情况: 输出目录无法创建,或ctx被取消(此时Result包含已完成的部分)。
func (d *Downloader) DownloadAll(ctx context.Context, set *models.MediaURLSet) (*Result, error) {
	result := &Result{}
	if set == nil || set.Len() == 0 {
		utils.Infof("没有需要下载的视频")
		return result, nil
	}

	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		return result, fmt.Errorf("创建输出目录失败: %w", err)
	}

	d.assigned = make(map[string]string)
	var errs *multierror.Error

	urls := set.URLs()
	utils.Infof("📥 开始下载 %d 个视频到 %s", len(urls), d.outputDir)

	for i, videoURL := range urls {
		if err := ctx.Err(); err != nil {
			result.Err = errs.ErrorOrNil()
			return result, fmt.Errorf("下载中断: %w", err)
		}

		file := models.NewVideoFile(videoURL, set.Source(videoURL))
		result.Files = append(result.Files, file)

		if err := d.download(ctx, file, i+1, len(urls)); err != nil {
			file.Status = models.DownloadStatusFailed
			file.Error = err.Error()
			result.Failed++
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", videoURL, err))

			if ctxErr := ctx.Err(); ctxErr != nil {
				result.Err = errs.ErrorOrNil()
				return result, fmt.Errorf("下载中断: %w", ctxErr)
			}
			utils.Warnf("下载失败 [%s]: %v", videoURL, err)
			continue
		}

		switch file.Status {
		case models.DownloadStatusSkipped:
			result.Skipped++
		case models.DownloadStatusDownloaded:
			result.Downloaded++
			result.TotalSize += file.Size
		}
	}

	result.Err = errs.ErrorOrNil()
	utils.Infof("✅ 下载完成: 成功 %d 个, 跳过 %d 个, 失败 %d 个", result.Downloaded, result.Skipped, result.Failed)
	return result, nil
}

// download 下载单个视频
func (d *Downloader) download(ctx context.Context, file *models.VideoFile, index, total int) error {
	filename, ext, err := d.assignFilename(file.URL)
	if err != nil {
		return err
	}
	file.Extension = ext
	file.FilePath = filepath.Join(d.outputDir, filename)

	// 运行前已存在的文件直接跳过
	if info, err := os.Stat(file.FilePath); err == nil {
		file.Status = models.DownloadStatusSkipped
		file.Size = info.Size()
		utils.Infof("⏭️  文件已存在,跳过: %s", filename)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if d.headerProvider != nil {
		headers, err := d.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
		} else {
			for name, values := range headers {
				if len(values) > 0 {
					req.Header.Set(name, values[0])
				}
			}
		}
		// 交给Transport协商压缩,保证写入的是原始视频字节
		req.Header.Del("Accept-Encoding")
	}
	if file.SourceURL != "" && req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", file.SourceURL)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &crawlers.HTTPStatusError{URL: file.URL, StatusCode: resp.StatusCode}
	}
	file.ContentType = resp.Header.Get("Content-Type")

	tmp, err := os.CreateTemp(d.outputDir, ".vidfindcrack-*.part")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// 成功时已被重命名,这里只清理失败留下的临时文件
		if _, statErr := os.Stat(tmpPath); statErr == nil {
			os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	writers := []io.Writer{tmp, hasher}
	if !d.quiet {
		bar := progressbar.DefaultBytes(resp.ContentLength, fmt.Sprintf("[%d/%d] %s", index, total, filename))
		defer bar.Close()
		writers = append(writers, bar)
	}

	size, copyErr := io.Copy(io.MultiWriter(writers...), resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return fmt.Errorf("写入文件失败: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("关闭临时文件失败: %w", closeErr)
	}
	if resp.ContentLength > 0 && size != resp.ContentLength {
		return fmt.Errorf("文件不完整: 收到 %d / %d 字节", size, resp.ContentLength)
	}

	if err := os.Rename(tmpPath, file.FilePath); err != nil {
		return fmt.Errorf("重命名文件失败: %w", err)
	}

	file.Size = size
	file.Hash = hex.EncodeToString(hasher.Sum(nil))
	file.Status = models.DownloadStatusDownloaded
	file.DownloadedAt = time.Now()

	utils.Infof("📥 下载成功: %s (%d bytes) - %s", filename, size, file.URL)
	return nil
}

// assignFilename 为URL分配本地文件名
// 文件名取URL路径的最后一段; 缺少视频扩展名时补上匹配到的扩展名;
// 同名文件已分配给本次运行中的其他URL时,添加 _N 后缀
func (d *Downloader) assignFilename(videoURL string) (filename string, ext string, err error) {
	base, ext, err := d.baseFilename(videoURL)
	if err != nil {
		return "", "", err
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	suffix := filepath.Ext(base)
	candidate := base
	for i := 1; ; i++ {
		owner, taken := d.assigned[candidate]
		if !taken || owner == videoURL {
			break
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, suffix)
	}

	d.assigned[candidate] = videoURL
	return candidate, ext, nil
}

// baseFilename 从URL推导文件名和扩展名
func (d *Downloader) baseFilename(videoURL string) (string, string, error) {
	parsed, err := url.Parse(videoURL)
	if err != nil {
		return "", "", fmt.Errorf("URL格式无效: %w", err)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		name = ""
	}
	name = strings.TrimSpace(unsafeFilenameChars.Replace(name))

	suffix := filepath.Ext(name)
	stem := strings.TrimLeft(strings.TrimSuffix(name, suffix), ".")
	ext := strings.ToLower(suffix)
	if matched, ok := d.matcher.Match(videoURL); ok && ext != matched {
		stem += suffix
		suffix, ext = matched, matched
	}

	if stem == "" {
		stem = "video"
	}
	name = stem + suffix

	return name, ext, nil
}
