package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"controlling_motor/internal/models"
	"controlling_motor/internal/service"
)

func doAuthed(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.MotorEvent{
		{EventID: "e1", OccurredAt: now, Type: "START", SessionID: "s1", Description: "Motor started"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: "SET_SPEED", SessionID: "s1", Description: "Speed set to 1200 RPM"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// invalid 'from' → 400
	if w := doAuthed(r, http.MethodGet, "/api/v1/logs?from=notatime"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// invalid limit → 400
	if w := doAuthed(r, http.MethodGet, "/api/v1/logs?limit=-1"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'limit', got %d", w.Code)
	}

	// from after to → 400
	if w := doAuthed(r, http.MethodGet, "/api/v1/logs?from=2025-02-02&to=2025-02-01"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}

	// valid range, type, session and limit
	q := "/api/v1/logs?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) +
		"&type=set_speed&session=s1&limit=10"
	w := doAuthed(r, http.MethodGet, q)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                 `json:"count"`
		Events []models.MotorEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 || out.Events[0].SessionID != "s1" {
		t.Fatalf("unexpected response: %+v", out)
	}
	f := logs.lastFilter
	if f.Type != "SET_SPEED" || f.SessionID != "s1" || f.Limit != 10 {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if !f.From.Equal(now) || !f.To.Equal(now.Add(2*time.Second)) {
		t.Fatalf("unexpected bounds: %v..%v", f.From, f.To)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	w := doAuthed(r, http.MethodGet, "/api/v1/logs?from=2025-08-01&to=2025-08-01")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := time.Date(2025, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastFilter.To.Equal(want) {
		t.Fatalf("to=%v; want %v", logs.lastFilter.To, want)
	}
}

func TestLogsHandler_ServiceError(t *testing.T) {
	logs := &mockEventLog{err: errors.New("db down")}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	if w := doAuthed(r, http.MethodGet, "/api/v1/logs"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := map[string]time.Time{
		"2025-08-27T15:04:05Z":      time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC),
		"2025-08-27T18:04:05+03:00": time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC),
		"2025-08-27 15:04:05":       time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC),
		"2025-08-27":                time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseQueryTime(in)
		if err != nil || !got.Equal(want) {
			t.Fatalf("parseQueryTime(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseQueryTime("27/08/2025"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
