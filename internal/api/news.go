package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/LJTian/BizPlanner/internal/collector"
)

// getNews date 参数只做回显，不参与筛选
func (s *Server) getNews(c *gin.Context) {
	requestDate := c.Query("date")
	if requestDate == "" {
		requestDate = s.now().UTC().Format("2006-01-02")
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("news: pipeline panic: %v", r)
			newsError(c, fmt.Errorf("%v", r))
		}
	}()

	d, err := s.news.Latest(c.Request.Context())
	if err != nil {
		log.Errorf("news: build digest failed: %v", err)
		newsError(c, err)
		return
	}

	out := *d
	out.RequestDate = requestDate
	if out.Articles == nil {
		out.Articles = []collector.Article{}
	}
	c.JSON(http.StatusOK, out)
}

func newsError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":    err.Error(),
		"articles": []collector.Article{},
	})
}
