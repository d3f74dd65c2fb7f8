package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/LJTian/BizPlanner/internal/collector"
	"github.com/LJTian/BizPlanner/internal/processor"
)

const (
	digestCacheKey  = "news:digest"
	DefaultCacheTTL = 30 * time.Minute

	// 与 JS toISOString 一致，毫秒精度、UTC
	fetchedAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ErrCacheMiss 缓存中没有可用的摘要
var ErrCacheMiss = errors.New("cache miss")

// Digest /api/news 的响应体
type Digest struct {
	Articles    []collector.Article `json:"articles"`
	FetchedAt   string              `json:"fetchedAt"`
	RequestDate string              `json:"requestDate"`
	Total       int                 `json:"total"`
}

// Cache 跨请求共享摘要的缓存，未命中时返回 ErrCacheMiss
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Aggregator 抓取 → 解析 → 合并去重 → 截断，得到一份摘要
type Aggregator struct {
	fetcher   collector.Fetcher
	sources   []collector.FeedSource
	processor *processor.DigestProcessor

	cache    Cache
	cacheTTL time.Duration

	now func() time.Time
}

type Option func(*Aggregator)

// WithCache 启用共享缓存；ttl <= 0 时使用 DefaultCacheTTL
func WithCache(c Cache, ttl time.Duration) Option {
	return func(a *Aggregator) {
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		a.cache = c
		a.cacheTTL = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(f collector.Fetcher, sources []collector.FeedSource, p *processor.DigestProcessor, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:   f,
		sources:   sources,
		processor: p,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build 实时抓取所有订阅源。单个源失败不会返回错误，
// 只有流水线本身无法进行时（例如请求已取消）才返回 error。
func (a *Aggregator) Build(ctx context.Context) (*Digest, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate news: %w", err)
	}

	start := a.now()
	results := collector.FetchAll(ctx, a.fetcher, a.sources)
	// 抓取途中请求被取消时各源的失败不代表真实结果，不能当成空摘要返回或写入缓存
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate news: %w", err)
	}

	batches := make([][]collector.Article, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		batches = append(batches, r.Articles)
	}

	res := a.processor.Process(batches)

	log.WithFields(log.Fields{
		"sources": len(a.sources),
		"failed":  failed,
		"total":   res.Total,
		"order":   a.processor.Order(),
		"took":    a.now().Sub(start).Round(time.Millisecond),
	}).Info("news digest built")

	return &Digest{
		Articles:  res.Articles,
		FetchedAt: a.now().UTC().Format(fetchedAtLayout),
		Total:     res.Total,
	}, nil
}

// Latest 优先读缓存，未命中再实时构建并回写
func (a *Aggregator) Latest(ctx context.Context) (*Digest, error) {
	if a.cache != nil {
		if d, err := a.cached(ctx); err == nil {
			return d, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			log.Warnf("news cache read failed: %v", err)
		}
	}
	return a.Refresh(ctx)
}

// Refresh 实时构建并写入缓存，定时预热也走这里
func (a *Aggregator) Refresh(ctx context.Context) (*Digest, error) {
	d, err := a.Build(ctx)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if bs, err := json.Marshal(d); err == nil {
			if err := a.cache.Set(ctx, digestCacheKey, bs, a.cacheTTL); err != nil {
				log.Warnf("news cache write failed: %v", err)
			}
		}
	}
	return d, nil
}

func (a *Aggregator) cached(ctx context.Context) (*Digest, error) {
	bs, err := a.cache.Get(ctx, digestCacheKey)
	if err != nil {
		return nil, err
	}
	var d Digest
	if err := json.Unmarshal(bs, &d); err != nil {
		return nil, fmt.Errorf("decode cached digest: %w", err)
	}
	if d.Articles == nil {
		d.Articles = []collector.Article{}
	}
	return &d, nil
}
