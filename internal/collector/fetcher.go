package collector

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Article 从某个订阅源条目解析出来的一条新闻
type Article struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	PubDate     string   `json:"pubDate"`
	Source      string   `json:"source"`
	Category    Category `json:"category"`
	Region      Region   `json:"region"`

	// PublishedAt 仅用于按时间排序，不输出
	PublishedAt time.Time `json:"-"`
}

// DedupKey 标题前 40 个字符，用于跨源去重
func (a Article) DedupKey() string {
	return truncateRunes(a.Title, dedupKeyRunes)
}

// Fetcher 抽象每一个订阅源的抓取方式
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, src FeedSource) ([]Article, error)
}

// SourceResult 单个订阅源的最终结果，成功和失败都会落在这里
type SourceResult struct {
	Source   FeedSource
	Articles []Article
	Err      error
}

// FetchAll 并发抓取所有订阅源，等待全部结束后按声明顺序返回。
// 单个源失败只会让该源结果为空，不影响其它源。
func FetchAll(ctx context.Context, f Fetcher, sources []FeedSource) []SourceResult {
	results := make([]SourceResult, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = fetchOne(ctx, f, src)
			return nil // best-effort: 不取消其它源
		})
	}
	_ = g.Wait()

	return results
}

func fetchOne(ctx context.Context, f Fetcher, src FeedSource) (res SourceResult) {
	res.Source = src
	defer func() {
		if r := recover(); r != nil {
			res.Articles = nil
			res.Err = fmt.Errorf("%s: panic while fetching %s: %v", f.Name(), src.URL, r)
			log.WithFields(log.Fields{"category": src.Category, "region": src.Region}).Error(res.Err)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	items, err := f.Fetch(ctx, src)
	if err != nil {
		log.WithFields(log.Fields{
			"fetcher":  f.Name(),
			"category": src.Category,
			"region":   src.Region,
		}).Warnf("fetch feed failed: %v", err)
		res.Err = err
		return res
	}
	res.Articles = items
	return res
}
