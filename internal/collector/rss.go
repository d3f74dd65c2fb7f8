package collector

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	feedUserAgent        = "Mozilla/5.0 BizPlanner/1.0"
	feedMaxResponseBytes = 4 << 20 // 4MB
	DefaultFeedTimeout   = 8 * time.Second
)

// RSSFetcher 通过 colly 拉取 RSS 文档，再交给 ParseFeed 解析
type RSSFetcher struct {
	timeout time.Duration
}

func NewRSSFetcher(timeout time.Duration) *RSSFetcher {
	if timeout <= 0 {
		timeout = DefaultFeedTimeout
	}
	return &RSSFetcher{timeout: timeout}
}

func (f *RSSFetcher) Name() string {
	return "rss"
}

func (f *RSSFetcher) Fetch(ctx context.Context, src FeedSource) ([]Article, error) {
	c := colly.NewCollector(
		colly.UserAgent(feedUserAgent),
		colly.MaxBodySize(feedMaxResponseBytes),
	)
	c.SetRequestTimeout(f.timeout)

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	// colly 不支持 context，这里单独等待，调用方取消时直接返回；
	// 后台请求最多再占用 timeout 时长
	done := make(chan error, 1)
	go func() {
		done <- c.Visit(src.URL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("rss: fetch %s: %w", src.URL, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("rss: fetch %s: %w", src.URL, err)
		}
	}

	articles, err := ParseFeed(bytes.NewReader(body), src)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, src.URL)
	}
	return articles, nil
}
