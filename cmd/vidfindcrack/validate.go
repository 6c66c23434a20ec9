package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
)

// ValidateFlags 验证合并后的爬取配置
// 批量模式下起始URL在读取文件时逐个验证,这里只检查文件可读和其余参数
func ValidateFlags(config models.CrawlConfig, urlFile string) error {
	for _, ext := range config.MediaExtensions {
		if strings.TrimSpace(ext) == "" || strings.ContainsAny(ext, "/?#& ") {
			return fmt.Errorf("%w: 无效的视频扩展名: %q", models.ErrInvalidConfig, ext)
		}
	}

	if urlFile == "" {
		return config.Validate()
	}

	if _, err := os.Stat(urlFile); err != nil {
		return fmt.Errorf("URL文件不可用: %w", err)
	}

	probe := config.Clone()
	probe.BaseURL = "http://localhost/"
	return probe.Validate()
}
