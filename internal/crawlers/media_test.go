package crawlers

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestIsMediaURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		exts []string
		want bool
	}{
		{"后缀匹配", "https://example.com/video/clip1.mp4", nil, true},
		{"大写扩展名", "https://example.com/CLIP.MP4", nil, true},
		{"带查询参数", "https://example.com/clip.webm?token=abc", nil, true},
		{"带fragment", "https://example.com/clip.mkv#t=10", nil, true},
		{"中间路径段带扩展名", "https://example.com/movies.mp4/comments", nil, false},
		{"末尾斜杠", "https://example.com/a.mp4/", nil, false},
		{"查询参数中内嵌", "https://example.com/play?file=a.mov&autoplay=1", nil, true},
		{"相对路径", "/videos/clip1.mp4", nil, true},
		{"普通页面", "https://example.com/page2", nil, false},
		{"扩展名后还有后缀", "https://example.com/a.mp4.html", nil, false},
		{"主机名包含扩展名", "https://x.mp4.example.com/", nil, false},
		{"MIME类型不是URL", "video/mp4", nil, false},
		{"空字符串", "", nil, false},
		{"自定义扩展名", "https://example.com/seg.ts", []string{"ts"}, true},
		{"默认列表不含ts", "https://example.com/seg.ts", nil, false},
		{"自定义列表覆盖默认", "https://example.com/a.mp4", []string{".ts"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert_.Equal(t, tt.want, IsMediaURL(tt.url, tt.exts), tt.url)
		})
	}
}

func TestMediaMatcher_Match(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal([]string{".mp4", ".webm"}, normalizeExtensions([]string{"MP4", ".webm", "", "mp4"}))

	matcher := NewMediaMatcher([]string{"MP4", ".webm", "", "mp4"})

	ext, ok := matcher.Match("https://example.com/CLIP.MP4?x=1")
	assert.True(ok)
	assert.Equal(".mp4", ext)

	_, ok = matcher.Match("https://example.com/clip.avi")
	assert.False(ok)
}

func TestMediaMatcher_FindQuoted(t *testing.T) {
	assert := assert_.New(t)

	content := `<script>
var player = {"src":"https:\/\/cdn.example.com\/v\/a.mp4?x=1", 'poster': '/p.jpg'};
var backup = '/b.webm';
</script>
<source type="video/mp4">
<a href="notes.mp4.txt">`

	got := NewMediaMatcher(nil).FindQuoted(content)
	assert.Equal([]string{"https://cdn.example.com/v/a.mp4?x=1", "/b.webm"}, got)

	assert.Empty(NewMediaMatcher(nil).FindQuoted("<p>no videos here</p>"))
}

func TestMediaMatcher_FindQuotedUnescapes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"HTML实体", `<video src="/v.mp4?sig=abc&amp;exp=1"></video>`, []string{"/v.mp4?sig=abc&exp=1"}},
		{"JSON斜杠转义", `{"file":"https:\/\/cdn.example.com\/a.webm"}`, []string{"https://cdn.example.com/a.webm"}},
		{"JSON unicode转义", `{"file":"/a.mp4?x=1\u0026y=2"}`, []string{"/a.mp4?x=1&y=2"}},
	}

	matcher := NewMediaMatcher(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert_.Equal(t, tt.want, matcher.FindQuoted(tt.content))
		})
	}
}
