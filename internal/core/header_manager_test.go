package core

import (
	"testing"
)

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	t.Run("默认头部存在", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		if ua := hm.GetMergedHeaders().Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("期望默认User-Agent, 实际='%s'", ua)
		}
	})

	t.Run("优先级 default < config < cli", func(t *testing.T) {
		// viper会把配置文件中的键名转换为小写
		configHeaders := map[string]string{
			"user-agent": "ConfigBot/1.0",
			"referer":    "https://example.com/",
		}
		cliHeaders := []string{"User-Agent: CliBot/1.0"}

		hm, err := NewHeaderManager(configHeaders, cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()
		if ua := headers.Get("User-Agent"); ua != "CliBot/1.0" {
			t.Errorf("期望User-Agent='CliBot/1.0', 实际='%s'", ua)
		}
		if ref := headers.Get("Referer"); ref != "https://example.com/" {
			t.Errorf("期望配置文件Referer, 实际='%s'", ref)
		}
		if headers.Get("Accept") != "*/*" {
			t.Error("默认Accept丢失")
		}
	})

	t.Run("返回副本", func(t *testing.T) {
		hm, _ := NewHeaderManager(nil, nil)
		headers := hm.GetMergedHeaders()
		headers.Set("User-Agent", "changed")

		if hm.GetMergedHeaders().Get("User-Agent") != DefaultUserAgent {
			t.Error("修改返回值不应影响管理器")
		}
	})
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	cliHeaders := []string{
		"User-Agent: CustomBot/1.0",
		"Authorization: Bearer secret-token-12345",
		"Cookie: session=abcdef123456",
	}

	hm, err := NewHeaderManager(nil, cliHeaders)
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	safeHeaders := hm.GetSafeHeaders()

	if safeHeaders["User-Agent"] != "CustomBot/1.0" {
		t.Error("普通头部不应该被脱敏")
	}
	if safeHeaders["Authorization"] != "Bearer ***" {
		t.Errorf("期望Authorization='Bearer ***', 实际='%s'", safeHeaders["Authorization"])
	}
	if safeHeaders["Cookie"] == "session=abcdef123456" {
		t.Error("Cookie应该被脱敏")
	}
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("非法命令行参数返回错误", func(t *testing.T) {
		if _, err := NewHeaderManager(nil, []string{"InvalidFormat"}); err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	t.Run("禁止头部返回验证错误", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"Range: bytes=0-1"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		if _, err := hm.GetHeaders(); err == nil {
			t.Error("期望返回验证错误, 但成功了")
		}
		// 第二次调用返回同一个错误
		if _, err := hm.GetHeaders(); err == nil {
			t.Error("期望再次返回验证错误")
		}
	})

	t.Run("配置文件中的非法头部", func(t *testing.T) {
		hm, err := NewHeaderManager(map[string]string{"host": "example.com"}, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}
		if _, err := hm.GetHeaders(); err == nil {
			t.Error("期望返回验证错误, 但成功了")
		}
	})

	t.Run("成功场景", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"User-Agent: TestBot/1.0", "X-Custom: test-value"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers, err := hm.GetHeaders()
		if err != nil {
			t.Fatalf("GetHeaders失败: %v", err)
		}
		if headers.Get("User-Agent") != "TestBot/1.0" {
			t.Error("User-Agent未正确设置")
		}
		if headers.Get("X-Custom") != "test-value" {
			t.Error("X-Custom未正确设置")
		}
	})
}
