package crawlers

import (
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

const mb = 1024 * 1024

func newTestMonitor(config ResourceMonitorConfig, available uint64, cpuUsage float64) *ResourceMonitor {
	rm := NewResourceMonitor(config)
	rm.memoryProbe = func() (uint64, uint64, error) { return 8192 * mb, available, nil }
	rm.cpuProbe = func() (float64, error) { return cpuUsage, nil }
	return rm
}

func TestResourceMonitor_CheckResourceAvailability(t *testing.T) {
	tests := []struct {
		name      string
		config    ResourceMonitorConfig
		available uint64
		cpuUsage  float64
		want      bool
	}{
		{"资源充足", ResourceMonitorConfig{SafetyReserveMemory: 1024 * mb, SafetyThreshold: 500 * mb, CPULoadThreshold: 80}, 4096 * mb, 10, true},
		{"内存不足", ResourceMonitorConfig{SafetyReserveMemory: 1024 * mb, SafetyThreshold: 500 * mb, CPULoadThreshold: 80}, 1200 * mb, 10, false},
		{"CPU负载过高", ResourceMonitorConfig{SafetyReserveMemory: 1024 * mb, SafetyThreshold: 500 * mb, CPULoadThreshold: 80}, 4096 * mb, 95, false},
		{"CPU检查已禁用", ResourceMonitorConfig{SafetyReserveMemory: 1024 * mb, SafetyThreshold: 500 * mb, CPULoadThreshold: 200}, 4096 * mb, 99, true},
		{"零阈值", ResourceMonitorConfig{}, 100 * mb, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newTestMonitor(tt.config, tt.available, tt.cpuUsage)
			canLaunch, reason := rm.CheckResourceAvailability()
			assert_.Equal(t, tt.want, canLaunch)
			if !tt.want {
				assert_.NotEmpty(t, reason)
			}
		})
	}
}

func TestResourceMonitor_ProbeFailure(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{SafetyThreshold: 500 * mb, CPULoadThreshold: 80})
	rm.memoryProbe = func() (uint64, uint64, error) { return 0, 0, errors.New("not supported") }
	rm.cpuProbe = func() (float64, error) { return 0, errors.New("not supported") }

	canLaunch, _ := rm.CheckResourceAvailability()
	assert_.True(t, canLaunch, "采样失败时不应阻止启动")

	_, err := rm.GetMemoryStatus()
	assert_.Error(t, err)
}

func TestResourceMonitor_MemoryPressure(t *testing.T) {
	tests := []struct {
		available uint64
		want      string
	}{
		{100 * mb, "emergency"},
		{250 * mb, "critical"},
		{450 * mb, "warning"},
		{2048 * mb, "normal"},
	}

	for _, tt := range tests {
		rm := newTestMonitor(ResourceMonitorConfig{}, tt.available, 0)
		status, err := rm.GetMemoryStatus()
		assert_.NoError(t, err)
		assert_.Equal(t, tt.want, status.MemoryPressure)
		assert_.Equal(t, uint64(8192*mb), status.TotalMemory)
	}
}
