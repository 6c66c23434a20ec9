package crawlers

import (
	"fmt"

	"github.com/RecoveryAshes/VidFindcrack/internal/models"
)

// URLQueue URL队列管理器
// 职责: 维护待爬取的FIFO队列(Frontier)和已访问集合(VisitedSet)
// 只由单个遍历流程持有,不做并发保护
type URLQueue struct {
	// 待处理URL队列(按入队顺序)
	pending []models.URLItem

	// 已入队过的URL(含已出队的),保证同一URL只入队一次
	queued map[string]bool

	// 已访问URL集合(包含获取失败的页面)
	visited map[string]bool

	// 最大爬取深度
	maxDepth int
}

// NewURLQueue 创建URL队列实例
func NewURLQueue(maxDepth int) *URLQueue {
	return &URLQueue{
		pending:  make([]models.URLItem, 0, 64),
		queued:   make(map[string]bool),
		visited:  make(map[string]bool),
		maxDepth: maxDepth,
	}
}

// Push 添加URL到待爬队列
// 检查深度限制、已访问和已入队; urlStr应为规范化后的URL
func (q *URLQueue) Push(urlStr string, depth int, sourceURL string) error {
	if urlStr == "" {
		return fmt.Errorf("URL为空")
	}

	// 检查深度限制
	if depth > q.maxDepth {
		return fmt.Errorf("深度超过限制: %d > %d", depth, q.maxDepth)
	}

	// 检查是否已访问
	if q.visited[urlStr] {
		return fmt.Errorf("URL已访问: %s", urlStr)
	}

	// 检查是否已在队列中
	if q.queued[urlStr] {
		return fmt.Errorf("URL已在队列中: %s", urlStr)
	}

	q.queued[urlStr] = true
	q.pending = append(q.pending, models.URLItem{
		URL:       urlStr,
		Depth:     depth,
		SourceURL: sourceURL,
	})

	return nil
}

// Pop 从队列头部取出下一个待爬URL
func (q *URLQueue) Pop() (models.URLItem, bool) {
	if len(q.pending) == 0 {
		return models.URLItem{}, false
	}

	item := q.pending[0]
	q.pending[0] = models.URLItem{}
	q.pending = q.pending[1:]
	return item, true
}

// MarkVisited 标记URL为已访问
func (q *URLQueue) MarkVisited(urlStr string) {
	q.visited[urlStr] = true
}

// IsVisited 检查URL是否已访问
func (q *URLQueue) IsVisited(urlStr string) bool {
	return q.visited[urlStr]
}

// VisitedCount 返回已访问URL数量
func (q *URLQueue) VisitedCount() int {
	return len(q.visited)
}

// PendingCount 返回当前待处理URL数量
func (q *URLQueue) PendingCount() int {
	return len(q.pending)
}
