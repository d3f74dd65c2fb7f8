package collector

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

// Category 订阅源的主题分类
type Category string

const (
	CategoryBio     Category = "bio"
	CategoryPharma  Category = "pharma"
	CategoryMedical Category = "medical"
	CategoryAI      Category = "ai"
)

// Region 订阅源的地区
type Region string

const (
	RegionKR   Region = "kr"
	RegionIntl Region = "intl"
)

// FeedSource 一个 RSS 订阅源，启动时确定，之后只读
type FeedSource struct {
	URL      string   `toml:"url"`
	Category Category `toml:"category"`
	Region   Region   `toml:"region"`
}

func (s FeedSource) Validate() error {
	if s.URL == "" {
		return errors.New("feed source: empty url")
	}
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("feed source: invalid url %q", s.URL)
	}
	switch s.Category {
	case CategoryBio, CategoryPharma, CategoryMedical, CategoryAI:
	default:
		return fmt.Errorf("feed source %s: unknown category %q", s.URL, s.Category)
	}
	switch s.Region {
	case RegionKR, RegionIntl:
	default:
		return fmt.Errorf("feed source %s: unknown region %q", s.URL, s.Region)
	}
	return nil
}

// googleNewsSearch 拼出 Google News 最近一天的搜索 RSS 地址
func googleNewsSearch(query string, region Region) string {
	v := url.Values{}
	v.Set("q", query+" when:1d")
	if region == RegionKR {
		v.Set("hl", "ko")
		v.Set("gl", "KR")
		v.Set("ceid", "KR:ko")
	} else {
		v.Set("hl", "en")
		v.Set("gl", "US")
		v.Set("ceid", "US:en")
	}
	return "https://news.google.com/rss/search?" + v.Encode()
}

var defaultSources = []FeedSource{
	// 韩国当天新闻
	{URL: googleNewsSearch("바이오 제약 신약", RegionKR), Category: CategoryBio, Region: RegionKR},
	{URL: googleNewsSearch("의료 디지털헬스케어", RegionKR), Category: CategoryMedical, Region: RegionKR},
	{URL: googleNewsSearch("인공지능 AI 헬스케어", RegionKR), Category: CategoryAI, Region: RegionKR},
	{URL: googleNewsSearch("제약 임상시험 FDA", RegionKR), Category: CategoryPharma, Region: RegionKR},
	// 国际当天新闻
	{URL: googleNewsSearch("biotech drug discovery", RegionIntl), Category: CategoryBio, Region: RegionIntl},
	{URL: googleNewsSearch("pharmaceutical clinical trial FDA", RegionIntl), Category: CategoryPharma, Region: RegionIntl},
	{URL: googleNewsSearch("medical device digital health", RegionIntl), Category: CategoryMedical, Region: RegionIntl},
	{URL: googleNewsSearch("artificial intelligence healthcare drug", RegionIntl), Category: CategoryAI, Region: RegionIntl},
}

// DefaultSources 返回内置订阅源列表的副本
func DefaultSources() []FeedSource {
	return slices.Clone(defaultSources)
}

type feedFile struct {
	Feeds []FeedSource `toml:"feeds"`
}

// LoadFeedSources 从 TOML 文件读取订阅源，path 为空时使用内置列表
//
//	[[feeds]]
//	url = "https://news.google.com/rss/search?q=biotech"
//	category = "bio"
//	region = "intl"
func LoadFeedSources(path string) ([]FeedSource, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var ff feedFile
	if err := toml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
	}
	if len(ff.Feeds) == 0 {
		return nil, fmt.Errorf("feeds file %s: no feeds defined", path)
	}
	for _, src := range ff.Feeds {
		if err := src.Validate(); err != nil {
			return nil, err
		}
	}
	return ff.Feeds, nil
}
