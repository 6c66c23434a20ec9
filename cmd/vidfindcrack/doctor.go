package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/RecoveryAshes/VidFindcrack/internal/crawlers"
	"github.com/RecoveryAshes/VidFindcrack/internal/utils"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "检查运行环境(浏览器、系统资源、输出目录)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("==============================================")
		fmt.Println("  VidFindcrack 环境检查")
		fmt.Println("==============================================")

		allOK := true

		fmt.Printf("✅ Go版本: %s\n", runtime.Version())
		fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

		// dynamic 模式需要本地浏览器,找不到时rod会尝试自动下载
		if path, ok := launcher.LookPath(); ok {
			fmt.Printf("✅ 浏览器: %s\n", path)
		} else {
			fmt.Println("⚠️  未找到Chrome/Chromium - dynamic模式首次运行时会自动下载")
		}

		monitor := crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{
			SafetyReserveMemory: int64(appConfig.Resource.SafetyReserveMemory) * 1024 * 1024,
			SafetyThreshold:     int64(appConfig.Resource.SafetyThreshold) * 1024 * 1024,
			CPULoadThreshold:    appConfig.Resource.CPULoadThreshold,
		})
		if status, err := monitor.GetMemoryStatus(); err != nil {
			fmt.Printf("⚠️  无法读取内存信息: %v\n", err)
		} else {
			fmt.Printf("✅ 系统内存: %s (扣除保留后可用 %s, 压力: %s)\n",
				utils.FormatBytes(int64(status.TotalMemory)),
				utils.FormatBytes(max(status.AvailableMemory, 0)),
				status.MemoryPressure)
		}
		if canLaunch, reason := monitor.CheckResourceAvailability(); canLaunch {
			fmt.Println("✅ 资源充足,可以使用dynamic模式")
		} else {
			fmt.Printf("⚠️  当前不适合启动浏览器: %s\n", reason)
		}

		baseDir := appConfig.Output.BaseDir
		if err := checkWritable(baseDir); err != nil {
			fmt.Printf("❌ 输出目录不可写: %s (%v)\n", baseDir, err)
			allOK = false
		} else {
			fmt.Printf("✅ 输出目录可写: %s\n", baseDir)
		}

		fmt.Println("==============================================")
		if !allOK {
			return fmt.Errorf("环境检查未通过,请解决上述问题")
		}
		fmt.Println("✅ 环境检查通过")
		return nil
	},
}

// checkWritable 在目录中创建并删除一个临时文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
