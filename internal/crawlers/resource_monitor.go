package crawlers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 职责: 在启动无头浏览器前检查可用内存和CPU负载
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 采样函数,测试时可替换
	memoryProbe func() (total, available uint64, err error)
	cpuProbe    func() (float64, error)
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 安全保留内存(字节)
	SafetyThreshold     int64 // 扣除保留内存后所需的最小可用内存(字节)
	CPULoadThreshold    int   // CPU负载阈值(%), >=200表示不检查
}

// MemoryStatus 内存状态信息
type MemoryStatus struct {
	TotalMemory     uint64 // 系统总内存(字节)
	AvailableMemory int64  // 扣除安全保留后的可用内存(字节)
	SafetyReserve   int64  // 安全保留内存(字节)
	SafetyThreshold int64  // 安全阈值(字节)
	MemoryPressure  string // 内存压力等级
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	return &ResourceMonitor{
		config:      config,
		memoryProbe: systemMemory,
		cpuProbe:    systemCPUPercent,
	}
}

// systemMemory 使用gopsutil获取真实系统内存
func systemMemory() (uint64, uint64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vmStat.Total, vmStat.Available, nil
}

// systemCPUPercent 获取所有CPU核心的平均使用率
// 100毫秒采样间隔,避免阻塞过久
func systemCPUPercent() (float64, error) {
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("CPU使用率数据为空")
	}
	return percentages[0], nil
}

// GetMemoryStatus 获取当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() (MemoryStatus, error) {
	total, available, err := rm.memoryProbe()
	if err != nil {
		return MemoryStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	availableMemory := int64(available) - rm.config.SafetyReserveMemory

	// 判断内存压力等级
	var pressure string
	availableMemoryMB := availableMemory / (1024 * 1024)
	switch {
	case availableMemoryMB < 200:
		pressure = "emergency"
	case availableMemoryMB < 300:
		pressure = "critical"
	case availableMemoryMB < 500:
		pressure = "warning"
	default:
		pressure = "normal"
	}

	return MemoryStatus{
		TotalMemory:     total,
		AvailableMemory: availableMemory,
		SafetyReserve:   rm.config.SafetyReserveMemory,
		SafetyThreshold: rm.config.SafetyThreshold,
		MemoryPressure:  pressure,
	}, nil
}

// CheckResourceAvailability 检查当前资源是否允许启动浏览器
// 返回canLaunch(是否允许)和reason(不允许时的原因)
// 采样失败时不阻止启动,只记录警告
func (rm *ResourceMonitor) CheckResourceAvailability() (canLaunch bool, reason string) {
	status, err := rm.GetMemoryStatus()
	if err != nil {
		log.Warn().Err(err).Msg("内存采样失败,跳过内存检查")
	} else if status.AvailableMemory < rm.config.SafetyThreshold {
		availableMemoryMB := status.AvailableMemory / (1024 * 1024)
		log.Warn().Msgf("可用内存不足(当前%dMB),浏览器启动受限", availableMemoryMB)
		return false, fmt.Sprintf("内存不足(当前%dMB)", availableMemoryMB)
	}

	// 如果配置的阈值 >= 200, 则跳过CPU检查(视为禁用)
	if rm.config.CPULoadThreshold > 0 && rm.config.CPULoadThreshold < 200 {
		cpuUsage, err := rm.cpuProbe()
		if err != nil {
			log.Warn().Err(err).Msg("获取CPU使用率失败")
			return true, ""
		}
		if cpuUsage > float64(rm.config.CPULoadThreshold) {
			return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", cpuUsage)
		}
	}

	return true, ""
}
