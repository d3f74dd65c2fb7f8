package api

import "github.com/gin-gonic/gin"

const (
	newsAllowedMethods     = "GET"
	calendarAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	calendarAllowedHeaders = "Content-Type"

	// CDN 缓存 30 分钟，过期后 1 小时内先返回旧数据再后台刷新
	newsCacheControl = "s-maxage=1800, stale-while-revalidate=3600"
)

// corsHeaders 前端部署在其它域名下，统一放开来源
func corsHeaders(methods, headers string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", methods)
		if headers != "" {
			c.Header("Access-Control-Allow-Headers", headers)
		}
		c.Next()
	}
}

func cacheControl(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
