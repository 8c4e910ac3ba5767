package httputil

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type webhookForm struct {
	From       string `form:"From"`
	Body       string `form:"Body"`
	MessageSid string `form:"MessageSid,optional"`
}

func TestParseFormBody(t *testing.T) {
	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("Body", "door")
	form.Set("MessageSid", "SM123")

	r := httptest.NewRequest("POST", "/sms", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var req webhookForm
	if err := Parse(r, &req); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if req.From != "+15551234567" {
		t.Errorf("From = %q, want +15551234567", req.From)
	}
	if req.Body != "door" {
		t.Errorf("Body = %q, want door", req.Body)
	}
	if req.MessageSid != "SM123" {
		t.Errorf("MessageSid = %q, want SM123", req.MessageSid)
	}
}

func TestParseQueryParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/events?limit=25", nil)

	var req struct {
		Limit int `form:"limit,optional"`
	}
	if err := Parse(r, &req); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if req.Limit != 25 {
		t.Errorf("Limit = %d, want 25", req.Limit)
	}
}

func TestParseJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/x", strings.NewReader(`{"name":"front"}`))
	r.Header.Set("Content-Type", "application/json")

	var req struct {
		Name string `json:"name"`
	}
	if err := Parse(r, &req); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if req.Name != "front" {
		t.Errorf("Name = %q, want front", req.Name)
	}
}

func TestOkXML(t *testing.T) {
	w := httptest.NewRecorder()
	OkXML(w, "<Response></Response>")

	if ct := w.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q, want application/xml", ct)
	}
	if w.Body.String() != "<Response></Response>" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestOkEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	OkEmpty(w)

	if w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}
