package dooray

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	seoulOffset     = "+09:00"
	seoulZone       = "Asia/Seoul"
	defaultStart    = "09:00"
	defaultEnd      = "10:00"
	eventIDPrefix   = "dooray-"
	eventCategory   = "meeting"
	eventPriority   = "medium"
	eventSourceName = "dooray"
)

// EventID Dooray 的 id 有时是字符串有时是数字，统一成字符串
type EventID string

func (id *EventID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EventID(s)
		return nil
	}
	*id = EventID(b)
	return nil
}

// EventTime 上游的开始/结束时间，全天事件只有 date
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Event 上游返回的日程
type Event struct {
	ID          EventID    `json:"id"`
	Summary     string     `json:"summary"`
	Start       *EventTime `json:"start"`
	End         *EventTime `json:"end"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
}

// CalendarEvent 前端使用的日程格式
type CalendarEvent struct {
	ID       string `json:"id"`
	DoorayID string `json:"doorayId"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	EndTime  string `json:"endTime"`
	Location string `json:"location"`
	Memo     string `json:"memo"`
	Category string `json:"category"`
	Priority string `json:"priority"`
	Source   string `json:"source"`
}

func ToCalendarEvent(ev Event) CalendarEvent {
	out := CalendarEvent{
		ID:       eventIDPrefix + string(ev.ID),
		DoorayID: string(ev.ID),
		Title:    ev.Summary,
		Location: ev.Location,
		Memo:     ev.Description,
		Category: eventCategory,
		Priority: eventPriority,
		Source:   eventSourceName,
	}
	if ev.Start != nil {
		if ev.Start.DateTime != "" {
			out.Date = substr(ev.Start.DateTime, 0, 10)
			out.Time = substr(ev.Start.DateTime, 11, 16)
		} else {
			out.Date = ev.Start.Date
		}
	}
	if ev.End != nil && ev.End.DateTime != "" {
		out.EndTime = substr(ev.End.DateTime, 11, 16)
	}
	return out
}

func substr(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}

// EventInput 前端提交的新建/修改请求
type EventInput struct {
	DoorayID  string `json:"doorayId"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	EndTime   string `json:"endTime"`
	Location  string `json:"location"`
	Memo      string `json:"memo"`
	Attendees string `json:"attendees"`
}

type attendee struct {
	Name string `json:"name"`
}

type eventBody struct {
	Summary     string     `json:"summary"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Attendees   []attendee `json:"attendees,omitempty"`
}

// toBody 缺省时间为 09:00-10:00，统一按首尔时区提交
func (in EventInput) toBody(withAttendees bool) eventBody {
	start, end := in.Time, in.EndTime
	if start == "" {
		start = defaultStart
	}
	if end == "" {
		end = defaultEnd
	}

	body := eventBody{
		Summary:     in.Title,
		Start:       EventTime{DateTime: in.Date + "T" + start + ":00" + seoulOffset, TimeZone: seoulZone},
		End:         EventTime{DateTime: in.Date + "T" + end + ":00" + seoulOffset, TimeZone: seoulZone},
		Location:    in.Location,
		Description: in.Memo,
	}
	if withAttendees {
		body.Attendees = parseAttendees(in.Attendees)
	}
	return body
}

// parseAttendees 逗号分隔的姓名列表
func parseAttendees(s string) []attendee {
	var out []attendee
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, attendee{Name: name})
	}
	return out
}
