package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"testing"

	"github.com/andybalholm/brotli"
)

// TestPageIsHTML 测试页面内容类型检测
func TestPageIsHTML(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		expected    bool
	}{
		{"未声明Content-Type", "", true},
		{"text/html", "text/html", true},
		{"带charset的text/html", "text/html; charset=utf-8", true},
		{"大写Content-Type", "TEXT/HTML", true},
		{"XHTML", "application/xhtml+xml", true},
		{"纯文本", "text/plain", true},
		{"视频文件", "video/mp4", false},
		{"JSON", "application/json", false},
		{"二进制流", "application/octet-stream", false},
		{"格式错误但可识别", "text/html;;", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &Page{ContentType: tt.contentType}
			if got := page.IsHTML(); got != tt.expected {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.expected)
			}
		})
	}
}

// TestDecompressResponse 测试响应解压
func TestDecompressResponse(t *testing.T) {
	original := []byte(`<html><body><video src="/a.mp4"></video></body></html>`)

	var gzipBuf bytes.Buffer
	gw := gzip.NewWriter(&gzipBuf)
	gw.Write(original)
	gw.Close()

	var deflateBuf bytes.Buffer
	fw, _ := flate.NewWriter(&deflateBuf, flate.DefaultCompression)
	fw.Write(original)
	fw.Close()

	var brotliBuf bytes.Buffer
	bw := brotli.NewWriter(&brotliBuf)
	bw.Write(original)
	bw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"gzip", "gzip", gzipBuf.Bytes()},
		{"已被自动解压的gzip", "gzip", original},
		{"deflate", "deflate", deflateBuf.Bytes()},
		{"brotli", "br", brotliBuf.Bytes()},
		{"大写编码名", " BR ", brotliBuf.Bytes()},
		{"无压缩", "", original},
		{"identity", "identity", original},
		{"未知编码原样返回", "zstd", original},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompressResponse(tt.encoding, tt.body)
			if err != nil {
				t.Fatalf("decompressResponse() error = %v", err)
			}
			if !bytes.Equal(got, original) {
				t.Errorf("解压结果不匹配: got %q", got)
			}
		})
	}

	t.Run("损坏的gzip数据", func(t *testing.T) {
		if _, err := decompressResponse("gzip", []byte{0x1f, 0x8b, 'x', 'y'}); err == nil {
			t.Error("损坏的数据应返回错误")
		}
	})
}
