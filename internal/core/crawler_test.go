package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/VidFindcrack/internal/crawlers"
	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

// newVideoSite 启动一个带两个视频的小站点,其中一个视频地址返回404
func newVideoSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<a href="/videos/clip1.mp4">clip</a><a href="/page2">next</a>`)
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<video src="/videos/clip1.mp4"></video><video src="/videos/gone.webm"></video>`)
	})
	mux.HandleFunc("/videos/clip1.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		fmt.Fprint(w, "clip1-bytes")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCrawler_EndToEnd(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	server := newVideoSite(t)
	outputDir := t.TempDir()

	config := models.CrawlConfig{
		BaseURL:  server.URL,
		MaxDepth: 2,
		MaxPages: 10,
		WaitTime: 5,
	}
	crawler, err := NewCrawler(config, outputDir, nil)
	require.NoError(err)
	crawler.SetQuiet(true)

	require.NoError(crawler.Crawl(context.Background()))

	stats := crawler.GetStats()
	assert.Equal(2, stats.VisitedPages)
	assert.Equal(2, stats.VideosFound)
	assert.Equal(1, stats.DownloadedFiles)
	assert.Equal(1, stats.FailedFiles)
	assert.Equal(int64(len("clip1-bytes")), stats.TotalSize)
	assert.Error(crawler.DownloadErrors())
	assert.Equal(models.TaskStatusCompleted, crawler.Task().Status)

	data, err := os.ReadFile(filepath.Join(crawler.VideosDir(), "clip1.mp4"))
	require.NoError(err)
	assert.Equal("clip1-bytes", string(data))

	// 报告
	reportsDir := filepath.Join(crawler.DomainDir(), "reports")
	raw, err := os.ReadFile(filepath.Join(reportsDir, utils.CrawlReportFile))
	require.NoError(err)

	var report models.CrawlReport
	require.NoError(json.Unmarshal(raw, &report))
	assert.Equal(crawler.Task().ID, report.TaskID)
	assert.Len(report.Videos, 1)
	require.Len(report.FailedFiles, 1)
	assert.Equal(server.URL+"/videos/gone.webm", report.FailedFiles[0].URL)
	assert.Equal(server.URL+"/page2", report.FailedFiles[0].SourceURL)
	assert.FileExists(filepath.Join(reportsDir, utils.MarkdownReportFile))
}

func TestCrawler_DomainDirWithPort(t *testing.T) {
	crawler, err := NewCrawler(models.CrawlConfig{BaseURL: "http://127.0.0.1:8080/", MaxPages: 1}, "out", nil)
	require_.NoError(t, err)

	assert_.Equal(t, filepath.Join("out", "127.0.0.1_8080"), crawler.DomainDir())
	assert_.Equal(t, filepath.Join("out", "127.0.0.1_8080", "videos"), crawler.VideosDir())
}

func TestCrawler_InvalidConfig(t *testing.T) {
	_, err := NewCrawler(models.CrawlConfig{BaseURL: "not a url", MaxPages: 1}, t.TempDir(), nil)
	assert_.ErrorIs(t, err, models.ErrInvalidConfig)

	_, err = NewCrawler(models.CrawlConfig{BaseURL: "https://example.com", MaxPages: 1, Mode: "browser"}, t.TempDir(), nil)
	assert_.ErrorIs(t, err, models.ErrInvalidConfig)
}

// cancellingFetcher 返回固定页面,并在第一次获取后取消ctx
type cancellingFetcher struct {
	cancel context.CancelFunc
	calls  int
}

func (f *cancellingFetcher) Fetch(ctx context.Context, url string) (*crawlers.Page, error) {
	f.calls++
	defer f.cancel()
	return &crawlers.Page{
		URL:         url,
		FinalURL:    url,
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte(`<a href="/next">n</a><video src="/v.mp4"></video>`),
	}, nil
}

func TestCrawler_CancelledSkipsDownload(t *testing.T) {
	assert := assert_.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outputDir := t.TempDir()
	crawler, err := NewCrawler(models.CrawlConfig{BaseURL: "https://example.com/", MaxDepth: 3, MaxPages: 10}, outputDir, nil)
	require_.NoError(t, err)

	fetcher := &cancellingFetcher{cancel: cancel}
	crawler.newFetcher = func(models.CrawlConfig, models.HeaderProvider) (crawlers.Fetcher, error) {
		return fetcher, nil
	}

	err = crawler.Crawl(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.True(IsCancelled(err))
	assert.Equal(1, fetcher.calls)
	assert.Equal(models.TaskStatusCancelled, crawler.Task().Status)
	assert.Equal(1, crawler.GetStats().VideosFound)

	// 没有下载,但报告仍然生成并列出已发现的视频
	assert.NoDirExists(crawler.VideosDir())
	report := crawler.BuildReport()
	require_.Len(t, report.Videos, 1)
	assert.Equal("https://example.com/v.mp4", report.Videos[0].URL)
	assert.Empty(report.Videos[0].FilePath)

	md, err := os.ReadFile(filepath.Join(crawler.DomainDir(), "reports", utils.MarkdownReportFile))
	require_.NoError(t, err)
	assert.True(strings.Contains(string(md), "中断"))
}
