package dooray

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL       = "https://api.dooray.com"
	clientTimeout        = 15 * time.Second
	maxResponseBytes     = 2 << 20 // 2MB
	calendarEventsFormat = "/calendar/v1/calendars/%s/events"
)

// ErrNotConfigured 缺少 API Key 或日历 ID
var ErrNotConfigured = errors.New("dooray: api key and calendar id are required")

// Config 通过构造函数显式传入，不在请求处理时读取环境变量
type Config struct {
	BaseURL    string
	APIKey     string
	CalendarID string
	MemberID   string
}

func (c Config) Configured() bool {
	return c.APIKey != "" && c.CalendarID != ""
}

// Response 上游原始响应，交给 handler 透传
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client Dooray 日历 API 的最小封装
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, hc *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: clientTimeout}
	}
	return &Client{cfg: cfg, http: hc}
}

func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) eventsPath() string {
	return fmt.Sprintf(calendarEventsFormat, url.PathEscape(c.cfg.CalendarID))
}

// ListEvents from/to 为 YYYY-MM-DD。上游没有 result 字段时返回原始 payload
func (c *Client) ListEvents(ctx context.Context, from, to string) ([]CalendarEvent, json.RawMessage, error) {
	q := url.Values{}
	q.Set("fromDate", from+"T00:00:00"+seoulOffset)
	q.Set("toDate", to+"T23:59:59"+seoulOffset)

	resp, err := c.do(ctx, http.MethodGet, c.eventsPath()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}

	var payload struct {
		Result []Event `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, nil, fmt.Errorf("dooray: decode events: %w", err)
	}
	if payload.Result == nil {
		return nil, resp.Body, nil
	}

	events := make([]CalendarEvent, 0, len(payload.Result))
	for _, ev := range payload.Result {
		events = append(events, ToCalendarEvent(ev))
	}
	return events, nil, nil
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.eventsPath(), in.toBody(true))
}

func (c *Client) UpdateEvent(ctx context.Context, in EventInput) (*Response, error) {
	if in.DoorayID == "" {
		return nil, errors.New("dooray: event id is required")
	}
	return c.do(ctx, http.MethodPut, c.eventsPath()+"/"+url.PathEscape(in.DoorayID), in.toBody(false))
}

// DeleteEvent 只关心是否成功，不解析响应体
func (c *Client) DeleteEvent(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("dooray: event id is required")
	}
	req, err := c.newRequest(ctx, http.MethodDelete, c.eventsPath()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("dooray: delete event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// Calendar 查询日历本身，用于连接状态检查；result 为空时返回 nil
func (c *Client) Calendar(ctx context.Context) (bool, json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/calendar/v1/calendars/%s", url.PathEscape(c.cfg.CalendarID)), nil)
	if err != nil {
		return false, nil, err
	}
	var payload struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return false, nil, fmt.Errorf("dooray: decode calendar: %w", err)
	}
	result := payload.Result
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		result = nil
	}
	return resp.OK(), result, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if !c.cfg.Configured() {
		return nil, ErrNotConfigured
	}

	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("dooray: encode body: %w", err)
		}
		r = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("dooray: build request: %w", err)
	}
	req.Header.Set("Authorization", "dooray-api "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do 发送请求并要求响应体是合法 JSON
func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dooray: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("dooray: read response: %w", err)
	}
	if !json.Valid(bs) {
		return nil, fmt.Errorf("dooray: %s %s: unexpected non-JSON response (status %d)", method, path, resp.StatusCode)
	}
	return &Response{StatusCode: resp.StatusCode, Body: bs}, nil
}
