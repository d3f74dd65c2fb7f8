package collector

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/rss"
)

const (
	maxItemsPerSource   = 8
	maxDescriptionRunes = 200
	dedupKeyRunes       = 40
)

// 韩国时区，用于 pubDate 的日期展示
var locSeoul *time.Location

func init() {
	locSeoul, _ = time.LoadLocation("Asia/Seoul")
	if locSeoul == nil {
		locSeoul = time.FixedZone("KST", 9*3600)
	}
}

// ParseFeed 解析一份 RSS 文档，最多取前 8 条，缺少标题或链接的条目直接丢弃。
// 文档整体解析失败（例如响应被截断）时退回逐条 <item> 解析，保留已完整的条目。
func ParseFeed(r io.Reader, src FeedSource) ([]Article, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("rss: read feed: %w", err)
	}

	var items []*rss.Item
	feed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err == nil {
		items = feed.Items
	} else {
		items = parseItemFragments(body)
		if !hasItem(items) {
			return nil, fmt.Errorf("rss: parse feed: %w", err)
		}
	}

	if len(items) > maxItemsPerSource {
		items = items[:maxItemsPerSource]
	}

	out := make([]Article, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		a := articleFromItem(it, src)
		if a.Title == "" || a.Link == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

var (
	itemOpen  = []byte("<item")
	itemClose = []byte("</item>")
)

// parseItemFragments 按 <item>...</item> 切分后逐条套上最小的 rss 外壳解析，
// 没有闭合标签的条目（被截断的尾部）不计入；最多处理前 8 个片段。
func parseItemFragments(body []byte) []*rss.Item {
	var items []*rss.Item
	fragments := 0
	for fragments < maxItemsPerSource {
		start := indexItemOpen(body)
		if start < 0 {
			break
		}
		body = body[start:]
		end := bytes.Index(body, itemClose)
		if end < 0 {
			break
		}
		end += len(itemClose)
		fragment := body[:end]
		body = body[end:]
		fragments++

		var doc bytes.Buffer
		doc.WriteString(`<rss version="2.0"><channel>`)
		doc.Write(fragment)
		doc.WriteString(`</channel></rss>`)
		feed, err := (&rss.Parser{}).Parse(&doc)
		if err != nil || len(feed.Items) == 0 {
			// 占位，保证 8 条上限按原始条目计算
			items = append(items, nil)
			continue
		}
		items = append(items, feed.Items[0])
	}
	return items
}

func hasItem(items []*rss.Item) bool {
	for _, it := range items {
		if it != nil {
			return true
		}
	}
	return false
}

// indexItemOpen 查找 "<item>" 或带属性的 "<item ..."，跳过 "<items" 之类的标签
func indexItemOpen(b []byte) int {
	offset := 0
	for {
		i := bytes.Index(b[offset:], itemOpen)
		if i < 0 {
			return -1
		}
		i += offset
		next := i + len(itemOpen)
		if next < len(b) {
			switch b[next] {
			case '>', ' ', '\t', '\n', '\r':
				return i
			}
		}
		offset = next
	}
}

func articleFromItem(it *rss.Item, src FeedSource) Article {
	a := Article{
		Title:       stripTags(it.Title),
		Link:        strings.TrimSpace(it.Link),
		Description: truncateRunes(stripTags(it.Description), maxDescriptionRunes),
		Category:    src.Category,
		Region:      src.Region,
	}
	if it.Source != nil {
		a.Source = stripTags(it.Source.Title)
	}
	if it.PubDateParsed != nil {
		a.PublishedAt = *it.PubDateParsed
		a.PubDate = formatKoreanDate(*it.PubDateParsed)
	}
	return a
}

// stripTags 去掉内嵌的 HTML 标签，只保留文本，并压缩多余空白
func stripTags(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// formatKoreanDate 与 ko-KR 的 toLocaleDateString 一致，例如 "2024. 1. 1."
func formatKoreanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(locSeoul)
	return fmt.Sprintf("%d. %d. %d.", t.Year(), int(t.Month()), t.Day())
}

// truncateRunes 按 rune 截断，避免切断多字节字符
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
