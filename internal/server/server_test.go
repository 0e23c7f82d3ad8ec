package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docmate/internal/models"
)

type fakeAnswerer struct {
	got []string
}

func (f *fakeAnswerer) Answer(_ context.Context, text string) models.Response {
	f.got = append(f.got, text)
	if strings.TrimSpace(text) == "" {
		return models.Response{Query: text, Answer: models.EmptyReply, Intent: "empty", Language: "en"}
	}
	return models.Response{
		Query:    text,
		Answer:   "Chapter 2 covers the storm.",
		Intent:   "question",
		Language: "en",
		Sources:  []string{"chattbot.pdf p.12"},
	}
}

func TestAsk(t *testing.T) {
	ans := &fakeAnswerer{}
	srv := New(":0", ans, time.Minute, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"message":"What is chapter 2 about?"}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "Chapter 2 covers the storm." || resp.Intent != "question" || len(resp.Sources) != 1 {
		t.Errorf("response = %+v", resp)
	}
	if len(ans.got) != 1 || ans.got[0] != "What is chapter 2 about?" {
		t.Errorf("answerer got %q", ans.got)
	}
}

func TestAskEmptyMessage(t *testing.T) {
	srv := New(":0", &fakeAnswerer{}, time.Minute, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), models.EmptyReply) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAskBadJSON(t *testing.T) {
	ans := &fakeAnswerer{}
	srv := New(":0", ans, time.Minute, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"message":`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(ans.got) != 0 {
		t.Error("answerer must not be called for a bad body")
	}
}

func TestAskWrongMethod(t *testing.T) {
	srv := New(":0", &fakeAnswerer{}, time.Minute, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ask", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := New(":0", &fakeAnswerer{}, 0, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(":0", &fakeAnswerer{}, 0, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := New(":0", &fakeAnswerer{}, time.Minute, []string{"http://localhost:*"})
	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
