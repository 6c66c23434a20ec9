package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/spf13/viper"
)

// MaxConfigFileSize 配置文件最大大小 (1MB)
const MaxConfigFileSize = 1 * 1024 * 1024

// Config 应用程序配置
type Config struct {
	Crawl    models.CrawlConfig `mapstructure:"crawl"`
	HTTP     HTTPConfig         `mapstructure:"http"`
	Resource ResourceConfig     `mapstructure:"resource"`
	Logging  LoggingConfig      `mapstructure:"logging"`
	Output   OutputConfig       `mapstructure:"output"`

	// 实际使用的配置文件路径,未找到配置文件时为空
	File string `mapstructure:"-"`
}

// HTTPConfig HTTP请求配置
type HTTPConfig struct {
	// 自定义请求头部,优先级高于默认头部、低于命令行 -H
	Headers map[string]string `mapstructure:"headers"`
}

// ResourceConfig 动态模式启动浏览器前的资源检查阈值
type ResourceConfig struct {
	SafetyReserveMemory int `mapstructure:"safety_reserve_memory"` // MB
	SafetyThreshold     int `mapstructure:"safety_threshold"`      // MB
	CPULoadThreshold    int `mapstructure:"cpu_load_threshold"`    // %
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig 加载配置文件
// configPath 为空时依次搜索 ./configs、. 和 ~/.vidfindcrack 下的 config.yaml,
// 找不到则使用默认值; 显式指定的文件不存在或格式错误时返回 *models.ConfigError
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".vidfindcrack"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configFileName(v, configPath), Cause: err}
		}
	} else if info, err := os.Stat(v.ConfigFileUsed()); err == nil && info.Size() > MaxConfigFileSize {
		return nil, &models.ConfigError{
			FilePath: v.ConfigFileUsed(),
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: configFileName(v, configPath), Cause: err}
	}
	config.File = v.ConfigFileUsed()

	return &config, nil
}

func configFileName(v *viper.Viper, configPath string) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return configPath
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.max_pages", 1000)
	v.SetDefault("crawl.mode", string(models.ModeStatic))
	v.SetDefault("crawl.wait_time", 10)
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.allow_subdomains", false)
	v.SetDefault("crawl.media_extensions", models.DefaultMediaExtensions)

	v.SetDefault("resource.safety_reserve_memory", 1024)
	v.SetDefault("resource.safety_threshold", 500)
	v.SetDefault("resource.cpu_load_threshold", 80)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.base_dir", "videos")
}

// CrawlConfig 返回合并了资源阈值的爬取配置副本
func (c *Config) CrawlConfig() models.CrawlConfig {
	crawl := c.Crawl.Clone()
	crawl.SafetyReserveMemory = c.Resource.SafetyReserveMemory
	crawl.SafetyThreshold = c.Resource.SafetyThreshold
	crawl.CPULoadThreshold = c.Resource.CPULoadThreshold
	return crawl
}
