package models

import "sort"

// MediaURLSet 已发现的视频URL集合
// 每个URL只保存一次,并记录第一次发现它的页面
type MediaURLSet struct {
	sources map[string]string // 视频URL -> 来源页面
}

// NewMediaURLSet 创建空集合
func NewMediaURLSet() *MediaURLSet {
	return &MediaURLSet{sources: make(map[string]string)}
}

// Add 插入视频URL,已存在时不做任何修改并返回false
func (s *MediaURLSet) Add(mediaURL, sourceURL string) bool {
	if _, exists := s.sources[mediaURL]; exists {
		return false
	}
	s.sources[mediaURL] = sourceURL
	return true
}

// Contains 检查视频URL是否已存在
func (s *MediaURLSet) Contains(mediaURL string) bool {
	_, exists := s.sources[mediaURL]
	return exists
}

// Source 返回发现视频的页面
func (s *MediaURLSet) Source(mediaURL string) string {
	return s.sources[mediaURL]
}

// Len 返回集合大小
func (s *MediaURLSet) Len() int {
	return len(s.sources)
}

// URLs 返回按字典序排列的全部视频URL
func (s *MediaURLSet) URLs() []string {
	urls := make([]string, 0, len(s.sources))
	for u := range s.sources {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
