package processor

import (
	"math/rand"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/LJTian/BizPlanner/internal/collector"
)

// MaxArticles 一次摘要最多返回的条数
const MaxArticles = 40

// Order 去重之后的排序方式
type Order string

const (
	// OrderShuffle 随机打乱，每次请求看到的内容更有新鲜感
	OrderShuffle Order = "shuffle"
	// OrderRecency 按发布时间倒序，没有时间的排在最后
	OrderRecency Order = "recency"
)

// ParseOrder 未识别的值一律回退到 shuffle
func ParseOrder(s string) Order {
	if Order(strings.ToLower(strings.TrimSpace(s))) == OrderRecency {
		return OrderRecency
	}
	return OrderShuffle
}

// Result 处理后的文章及截断前的数量
type Result struct {
	Articles []collector.Article
	Total    int
}

// DigestProcessor 合并 → 去重 → 排序 → 截断
type DigestProcessor struct {
	order   Order
	limit   int
	shuffle func(n int, swap func(i, j int))
}

func NewDigestProcessor(order Order) *DigestProcessor {
	return &DigestProcessor{
		order:   order,
		limit:   MaxArticles,
		shuffle: rand.Shuffle,
	}
}

func (p *DigestProcessor) Order() Order {
	return p.order
}

// Process batches 的顺序即订阅源声明顺序，同一批内保持条目顺序
func (p *DigestProcessor) Process(batches [][]collector.Article) Result {
	unique := Dedupe(lo.Flatten(batches))

	switch p.order {
	case OrderRecency:
		sortByRecency(unique)
	default:
		p.shuffle(len(unique), func(i, j int) {
			unique[i], unique[j] = unique[j], unique[i]
		})
	}

	total := len(unique)
	if len(unique) > p.limit {
		unique = unique[:p.limit]
	}
	if unique == nil {
		unique = []collector.Article{}
	}
	return Result{Articles: unique, Total: total}
}

// Dedupe 标题前 40 个字符相同视为重复，先出现的保留
func Dedupe(items []collector.Article) []collector.Article {
	return lo.UniqBy(items, collector.Article.DedupKey)
}

func sortByRecency(items []collector.Article) {
	slices.SortStableFunc(items, func(a, b collector.Article) int {
		switch {
		case a.PublishedAt.IsZero() && b.PublishedAt.IsZero():
			return 0
		case a.PublishedAt.IsZero():
			return 1
		case b.PublishedAt.IsZero():
			return -1
		}
		return b.PublishedAt.Compare(a.PublishedAt)
	})
}
