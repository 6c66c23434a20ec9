package models

// URLItem 表示待爬队列中的一个页面
type URLItem struct {
	// URL 规范化后的完整URL
	URL string

	// Depth 页面深度
	//   - 0: 起始URL
	//   - 1: 从起始页面发现的链接
	//   - 以此类推...
	Depth int

	// SourceURL 发现此URL的页面(起始URL为空)
	SourceURL string
}
