package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/BizPlanner/internal/aggregator"
	"github.com/LJTian/BizPlanner/internal/dooray"
)

type upstreamCall struct {
	method string
	path   string
	query  string
	body   string
}

// fakeDooray 模拟 Dooray API，按 method+path 返回固定响应
func fakeDooray(t *testing.T, status int, reply string) (*httptest.Server, *[]upstreamCall) {
	t.Helper()
	calls := &[]upstreamCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs, _ := io.ReadAll(r.Body)
		*calls = append(*calls, upstreamCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(bs)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func calendarEngine(baseURL string) http.Handler {
	client := dooray.NewClient(dooray.Config{BaseURL: baseURL, APIKey: "k", CalendarID: "cal-1", MemberID: "m-1"}, nil)
	noNews := newsFunc(func(context.Context) (*aggregator.Digest, error) { return nil, nil })
	return newTestEngine(noNews, NewServer(noNews, client))
}

func TestCalendarOptionsAndCORS(t *testing.T) {
	r := calendarEngine("http://127.0.0.1:1")
	w := serve(r, httptest.NewRequest(http.MethodOptions, "/api/dooray", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, w.Body.String())
}

func TestCalendarNotConfigured(t *testing.T) {
	noNews := newsFunc(func(context.Context) (*aggregator.Digest, error) { return nil, nil })
	r := newTestEngine(noNews, NewServer(noNews, dooray.NewClient(dooray.Config{}, nil)))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/dooray?action=list", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.Contains(t, body["setup"], "DOORAY_API_KEY")
}

func TestCalendarUnknownAction(t *testing.T) {
	r := calendarEngine("http://127.0.0.1:1")

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/dooray?action=explode", nil),
		// action 和 method 不匹配
		httptest.NewRequest(http.MethodGet, "/api/dooray?action=create", nil),
	} {
		w := serve(r, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Unknown action","available":["list","create","update","delete","status"]}`, w.Body.String())
	}
}

func TestCalendarList(t *testing.T) {
	srv, calls := fakeDooray(t, http.StatusOK, `{"result":[{"id":"42","summary":"Investor call","start":{"dateTime":"2024-03-07T10:00:00+09:00"},"end":{"dateTime":"2024-03-07T11:00:00+09:00"},"location":"Zoom"}]}`)
	r := calendarEngine(srv.URL)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/dooray?action=list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":1,"events":[{"id":"dooray-42","doorayId":"42","title":"Investor call","date":"2024-03-07","time":"10:00","endTime":"11:00","location":"Zoom","memo":"","category":"meeting","priority":"medium","source":"dooray"}]}`, w.Body.String())

	// testNow 为 UTC 3 月 5 日 23 点，即首尔 3 月 6 日
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0].query, "fromDate=2024-03-06T00")
	assert.Contains(t, (*calls)[0].query, "toDate=2024-06-04T23")
}

func TestCalendarListWithoutResult(t *testing.T) {
	srv, _ := fakeDooray(t, http.StatusOK, `{"header":{"isSuccessful":false}}`)
	r := calendarEngine(srv.URL)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/dooray?action=list&from=2024-01-01&to=2024-01-31", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"events":[],"raw":{"header":{"isSuccessful":false}}}`, w.Body.String())
}

func TestCalendarCreatePassthrough(t *testing.T) {
	srv, calls := fakeDooray(t, http.StatusOK, `{"header":{"isSuccessful":true},"result":{"id":"99"}}`)
	r := calendarEngine(srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/dooray?action=create",
		strings.NewReader(`{"title":"Pitch","date":"2024-03-08","attendees":"Kim, Lee"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"header":{"isSuccessful":true},"result":{"id":"99"}}`, w.Body.String())
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Contains(t, (*calls)[0].body, `"dateTime":"2024-03-08T09:00:00+09:00"`)
	assert.Contains(t, (*calls)[0].body, `{"name":"Lee"}`)
}

func TestCalendarUpdate(t *testing.T) {
	srv, calls := fakeDooray(t, http.StatusBadRequest, `{"header":{"isSuccessful":false}}`)
	r := calendarEngine(srv.URL)

	missing := httptest.NewRequest(http.MethodPut, "/api/dooray?action=update", strings.NewReader(`{"title":"x"}`))
	w := serve(r, missing)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"doorayId is required"}`, w.Body.String())
	assert.Empty(t, *calls)

	req := httptest.NewRequest(http.MethodPut, "/api/dooray?action=update",
		strings.NewReader(`{"doorayId":"42","title":"Moved","date":"2024-03-09","time":"15:00"}`))
	w = serve(r, req)
	// 上游失败时返回 400 并透传
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"header":{"isSuccessful":false}}`, w.Body.String())
	require.Len(t, *calls, 1)
	assert.Equal(t, "/calendar/v1/calendars/cal-1/events/42", (*calls)[0].path)
}

func TestCalendarDelete(t *testing.T) {
	srv, calls := fakeDooray(t, http.StatusOK, `{}`)
	r := calendarEngine(srv.URL)

	w := serve(r, httptest.NewRequest(http.MethodDelete, "/api/dooray?action=delete", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/dooray?action=delete&doorayId=42", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"deleted"}`, w.Body.String())
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
}

func TestCalendarStatus(t *testing.T) {
	srv, _ := fakeDooray(t, http.StatusOK, `{"result":{"id":"cal-1","name":"BizPlanner"}}`)
	r := calendarEngine(srv.URL)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/dooray?action=status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"connected":true,"calendarId":"cal-1","memberId":"m-1","calendar":{"id":"cal-1","name":"BizPlanner"}}`, w.Body.String())
}

func TestCalendarUpstreamUnreachable(t *testing.T) {
	r := calendarEngine("http://127.0.0.1:1")
	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/dooray?action=status", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}
