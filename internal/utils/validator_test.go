package utils

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
	"github.com/hashicorp/go-multierror"
)

func TestHeaderValidator_ValidateName(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		expectError bool
	}{
		{"合法名称-字母", "User-Agent", false},
		{"合法名称-数字", "X-Request-ID-123", false},
		{"合法名称-Referer", "Referer", false},
		{"非法名称-空格", "User Agent", true},
		{"非法名称-下划线", "User_Agent", true},
		{"非法名称-特殊字符", "User@Agent", true},
		{"非法名称-空字符串", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateName(tt.headerName)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_ValidateValue(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerValue string
		expectError bool
	}{
		{"合法值-ASCII", "Mozilla/5.0", false},
		{"合法值-空字符串", "", false},
		{"合法值-最大长度", strings.Repeat(" ", MaxHeaderValueLength), false},
		{"非法值-超长", strings.Repeat("a", MaxHeaderValueLength+1), true},
		{"非法值-控制字符", "value\x00with\x01null", true},
		{"非法值-非ASCII", "播放器", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateValue("X-Test", tt.headerValue)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_IsForbidden(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		headerName string
		expected   bool
	}{
		{"Host", true},
		{"host", true},
		{"Content-Length", true},
		{"Range", true},
		{"User-Agent", false},
		{"Referer", false},
		{"Cookie", false},
	}

	for _, tt := range tests {
		t.Run(tt.headerName, func(t *testing.T) {
			if got := validator.IsForbidden(tt.headerName); got != tt.expected {
				t.Errorf("期望=%v, 实际=%v", tt.expected, got)
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	validator := NewHeaderValidator()

	t.Run("全部合法", func(t *testing.T) {
		headers := http.Header{
			"User-Agent": []string{"Mozilla/5.0"},
			"Referer":    []string{"https://example.com/"},
			"Cookie":     []string{"session=abc"},
		}
		if err := validator.Validate(headers); err != nil {
			t.Errorf("期望无错误, 实际错误=%v", err)
		}
	})

	t.Run("汇总所有非法头部", func(t *testing.T) {
		headers := http.Header{
			"User-Agent": []string{"value\x00bad"},
			"Host":       []string{"example.com"},
			"Range":      []string{"bytes=0-100"},
			"Accept":     []string{"*/*"},
		}

		err := validator.Validate(headers)
		if err == nil {
			t.Fatal("期望返回错误, 但无错误")
		}

		var merr *multierror.Error
		if !errors.As(err, &merr) {
			t.Fatalf("期望*multierror.Error, 得到 %T", err)
		}
		if len(merr.Errors) != 3 {
			t.Fatalf("期望3个错误, 得到 %d: %v", len(merr.Errors), err)
		}

		// 按头部名称排序
		var first *models.ValidationError
		if !errors.As(merr.Errors[0], &first) {
			t.Fatalf("期望*models.ValidationError, 得到 %T", merr.Errors[0])
		}
		if first.HeaderName != "Host" {
			t.Errorf("第一个错误应为Host, 得到 %s", first.HeaderName)
		}
	})
}

func TestHeaderRedactor(t *testing.T) {
	redactor := NewHeaderRedactor()

	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"Authorization", "Bearer token123", "Bearer ***"},
		{"Cookie", "session=abcdef123456", "sess***3456"},
		{"X-Api-Key", "short", "***"},
		{"X-Secret", "", "***"},
		{"User-Agent", "Mozilla/5.0", "Mozilla/5.0"},
		{"Referer", "https://example.com/", "https://example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactor.RedactHeaderValue(tt.name, tt.value); got != tt.expected {
				t.Errorf("期望 %q, 得到 %q", tt.expected, got)
			}
		})
	}

	t.Run("RedactToString按名称排序", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("User-Agent", "ua")
		headers.Set("Cookie", "session=abcdef123456")
		headers.Set("Accept", "*/*")

		expected := "Accept: */*, Cookie: sess***3456, User-Agent: ua"
		if got := redactor.RedactToString(headers); got != expected {
			t.Errorf("期望 %q, 得到 %q", expected, got)
		}
	})
}
