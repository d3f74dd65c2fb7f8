package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/BizPlanner/internal/aggregator"
	"github.com/LJTian/BizPlanner/internal/dooray"
)

// NewsSource 提供最新的新闻摘要（可能来自缓存）
type NewsSource interface {
	Latest(ctx context.Context) (*aggregator.Digest, error)
}

type Server struct {
	news     NewsSource
	calendar *dooray.Client
	now      func() time.Time
}

// NewServer calendar 可以为 nil，此时日历接口返回未配置错误
func NewServer(news NewsSource, calendar *dooray.Client) *Server {
	return &Server{news: news, calendar: calendar, now: time.Now}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	news := []gin.HandlerFunc{
		corsHeaders(newsAllowedMethods, ""),
		cacheControl(newsCacheControl),
		s.getNews,
	}
	// 兼容旧前端直接请求 /news
	r.GET("/news", news...)

	api := r.Group("/api")
	{
		api.GET("/news", news...)
		api.Any("/dooray", corsHeaders(calendarAllowedMethods, calendarAllowedHeaders), s.calendarProxy)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
