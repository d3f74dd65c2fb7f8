package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/LJTian/BizPlanner/internal/dooray"
)

const defaultListDays = 90

var calendarActions = []string{"list", "create", "update", "delete", "status"}

// 默认查询区间按首尔日期计算
var locSeoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*3600)
	}
	return loc
}()

// calendarProxy 浏览器直接调用 Dooray 会遇到 CORS，且不能暴露 API Key，由这里转发
func (s *Server) calendarProxy(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusOK)
		return
	}

	if s.calendar == nil || !s.calendar.Config().Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Dooray API is not configured, check the server environment",
			"setup": gin.H{
				"DOORAY_API_KEY":     "Dooray → Settings → API service → create an auth token",
				"DOORAY_CALENDAR_ID": "Dooray calendar id",
				"DOORAY_MEMBER_ID":   "Dooray member id",
			},
		})
		return
	}

	action := c.Query("action")
	method := c.Request.Method
	switch {
	case action == "list" && method == http.MethodGet:
		s.listEvents(c)
	case action == "create" && method == http.MethodPost:
		s.createEvent(c)
	case action == "update" && method == http.MethodPut:
		s.updateEvent(c)
	case action == "delete" && method == http.MethodDelete:
		s.deleteEvent(c)
	case action == "status":
		s.calendarStatus(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action", "available": calendarActions})
	}
}

func (s *Server) listEvents(c *gin.Context) {
	today := s.now().In(locSeoul)
	from := c.DefaultQuery("from", today.Format("2006-01-02"))
	to := c.DefaultQuery("to", today.AddDate(0, 0, defaultListDays).Format("2006-01-02"))

	events, raw, err := s.calendar.ListEvents(c.Request.Context(), from, to)
	if err != nil {
		calendarError(c, err)
		return
	}
	if raw != nil {
		c.JSON(http.StatusOK, gin.H{"events": []dooray.CalendarEvent{}, "raw": raw})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}

func (s *Server) createEvent(c *gin.Context) {
	var in dooray.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := s.calendar.CreateEvent(c.Request.Context(), in)
	if err != nil {
		calendarError(c, err)
		return
	}
	passthrough(c, resp)
}

func (s *Server) updateEvent(c *gin.Context) {
	var in dooray.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if in.DoorayID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doorayId is required"})
		return
	}

	resp, err := s.calendar.UpdateEvent(c.Request.Context(), in)
	if err != nil {
		calendarError(c, err)
		return
	}
	passthrough(c, resp)
}

func (s *Server) deleteEvent(c *gin.Context) {
	id := c.Query("doorayId")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doorayId is required"})
		return
	}

	ok, err := s.calendar.DeleteEvent(c.Request.Context(), id)
	if err != nil {
		calendarError(c, err)
		return
	}
	status, message := http.StatusOK, "deleted"
	if !ok {
		status, message = http.StatusBadRequest, "delete failed"
	}
	c.JSON(status, gin.H{"success": ok, "message": message})
}

func (s *Server) calendarStatus(c *gin.Context) {
	connected, calendar, err := s.calendar.Calendar(c.Request.Context())
	if err != nil {
		calendarError(c, err)
		return
	}
	cfg := s.calendar.Config()
	c.JSON(http.StatusOK, gin.H{
		"connected":  connected,
		"calendarId": cfg.CalendarID,
		"memberId":   cfg.MemberID,
		"calendar":   calendar,
	})
}

// passthrough 上游成功返回 200，否则 400，响应体原样返回
func passthrough(c *gin.Context, resp *dooray.Response) {
	status := http.StatusOK
	if !resp.OK() {
		status = http.StatusBadRequest
	}
	c.Data(status, "application/json; charset=utf-8", resp.Body)
}

func calendarError(c *gin.Context, err error) {
	log.Errorf("calendar proxy: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
