// Package crawlers 提供视频URL的站内爬取功能
//
// # 概述
//
// crawlers包从起始URL出发,按广度优先遍历同域页面,从页面的 href/src 属性和
// 内联脚本中提取视频文件URL,去重后交给下载器。遍历受最大深度和最大页面数双重限制。
//
// # 核心组件
//
// ## MediaCrawler
//
// 遍历主流程。配置在创建时一次性传入,无效配置直接返回错误,不会发起请求。
//
//	crawler, err := NewMediaCrawler(config, NewStaticFetcher(config, headerProvider))
//	if err != nil { /* models.ErrInvalidConfig */ }
//	videos, err := crawler.Crawl(ctx)
//
// ## Fetcher
//
// 页面获取接口,两种实现:
//   - StaticFetcher: 基于Colly的同步HTTP获取,支持gzip/deflate/br解压
//   - DynamicFetcher: 基于go-rod的无头浏览器,返回渲染后的DOM
//
// 非2xx响应返回 *HTTPStatusError,由MediaCrawler记录后跳过。
//
// ## ResourceMonitor (资源监控器)
//
// 启动浏览器前检查系统可用内存和CPU负载,资源不足时拒绝启动:
//
//	monitor := NewResourceMonitor(ResourceMonitorConfig{
//	    SafetyReserveMemory: 1024 * 1024 * 1024, // 1GB
//	    SafetyThreshold:     500 * 1024 * 1024,  // 500MB
//	    CPULoadThreshold:    80,
//	})
//	canLaunch, reason := monitor.CheckResourceAvailability()
//
// ## URLQueue (URL队列)
//
// FIFO待爬队列加已访问集合。同一URL只会入队一次,深度超限的URL直接拒绝。
//
// ## URLExtractor (URL提取器)
//
// 使用 golang.org/x/net/html 解析页面:
//   - 页面链接: <a>/<area> 的 href, <iframe>/<frame> 的 src, 只保留站内链接
//   - 视频URL: 任意元素的 href/src/data-src, 以及原始文本中引号包裹的视频URL
//   - 支持 <base href>
//
// ## MediaMatcher / IsMediaURL
//
// 视频URL判断为纯函数,按扩展名后缀或内嵌模式匹配(如 /stream.mp4/index.m3u8)。
//
// # URL规范化
//
// 所有已访问URL和视频URL都经过 NormalizeURL 处理:
// scheme/host小写,去掉默认端口和fragment,空路径变为 "/",解析点路径段,
// 保留查询字符串和末尾斜杠。
//
// # 站内判断
//
// 默认精确匹配起始URL的host。配置 crawl.allow_subdomains 后也接受子域名:
//
//	crawl:
//	  allow_subdomains: true
//
// # 并发模型
//
// 单线程顺序执行,一次只获取和解析一个页面。URLQueue和结果集合只由遍历流程持有,不加锁。
// ctx取消后在下一个页面前停止,返回已收集的部分结果和 ctx.Err()。
package crawlers
