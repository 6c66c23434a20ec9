package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// HeaderManager 管理HTTP请求头部
// 实现 models.HeaderProvider 接口,页面获取和视频下载共用
type HeaderManager struct {
	// 系统默认头部
	defaults http.Header

	// 配置文件 http.headers
	config http.Header

	// 命令行 -H
	cli http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor

	// 头部在整个运行期间不变,只验证一次
	once        sync.Once
	validateErr error
}

// NewHeaderManager 创建头部管理器
// 参数:
//   - configHeaders: 配置文件中的头部 (http.headers)
//   - cliHeaders: 命令行传递的头部字符串列表,格式 "Name: Value"
//
// 命令行参数格式错误时返回错误
func NewHeaderManager(configHeaders map[string]string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:  getDefaultHeaders(),
		config:    make(http.Header),
		cli:       make(http.Header),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
	}

	for name, value := range configHeaders {
		hm.config.Set(name, value)
	}

	if len(cliHeaders) > 0 {
		parsed, err := models.CliHeaders(cliHeaders).Parse()
		if err != nil {
			return nil, err
		}
		hm.cli = parsed
	}

	if len(hm.config) > 0 {
		utils.Debugf("加载了%d个配置文件头部: %s", len(hm.config), hm.redactor.RedactToString(hm.config))
	}

	return hm, nil
}

// getDefaultHeaders 返回系统默认头部
func getDefaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"*/*"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// Validate 验证所有头部的合法性
// 验证顺序: 默认 → 配置 → 命令行
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.defaults); err != nil {
		utils.Errorf("默认头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("配置文件头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("命令行头部验证失败: %v", err)
		return err
	}

	utils.Debugf("所有HTTP头部验证通过")
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)

	for name, values := range hm.defaults {
		result[name] = append([]string(nil), values...)
	}
	for name, values := range hm.config {
		result[name] = append([]string(nil), values...)
	}
	for name, values := range hm.cli {
		result[name] = append([]string(nil), values...)
	}

	return result
}

// GetSafeHeaders 返回脱敏后的头部 (用于日志)
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
// 第一次调用时验证头部,验证失败后每次都返回同一个错误
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.once.Do(func() {
		hm.validateErr = hm.Validate()
	})
	if hm.validateErr != nil {
		return nil, hm.validateErr
	}
	return hm.GetMergedHeaders(), nil
}
