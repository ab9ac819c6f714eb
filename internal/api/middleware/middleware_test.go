package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNormalizePath проверяет замену числовых сегментов на {id}.
func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/books", "/books"},
		{"/books/42", "/books/{id}"},
		{"/opds/authors/7", "/opds/authors/{id}"},
		{"/download/601", "/download/{id}"},
		{"/health/ready", "/health/ready"},
		{"/", "/"},
	}

	for _, tc := range cases {
		if got := normalizePath(tc.in); got != tc.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tc.in, got, tc.want)
		}
	}
}

// TestRequestID_Generated проверяет генерацию идентификатора запроса
// и его наличие в ответе и контексте.
func TestRequestID_Generated(t *testing.T) {
	var ctxID string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))

	if ctxID == "" {
		t.Errorf("request id отсутствует в контексте")
	}
	if got := rec.Header().Get("X-Request-Id"); got != ctxID {
		t.Errorf("X-Request-Id = %q, в контексте %q", got, ctxID)
	}
}

// TestRequestID_Passthrough проверяет передачу входящего X-Request-Id.
func TestRequestID_Passthrough(t *testing.T) {
	var ctxID string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("X-Request-Id", "upstream-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ctxID != "upstream-7" {
		t.Errorf("request id = %q, ожидался входящий 'upstream-7'", ctxID)
	}
}

// TestDefaultHeaders проверяет стандартные заголовки ответов.
func TestDefaultHeaders(t *testing.T) {
	handler := DefaultHeaders()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))

	checks := map[string]string{
		"Access-Control-Allow-Origin": "*",
		"X-Content-Type-Options":      "nosniff",
		"Referrer-Policy":             "no-referrer",
	}
	for header, want := range checks {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, ожидалось %q", header, got, want)
		}
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Errorf("Cache-Control не выставлен")
	}
}

// TestMetricsMiddleware_PassesThrough проверяет прозрачность middleware
// для статуса и тела ответа.
func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("body"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/42", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, ожидался 418", rec.Code)
	}
	if rec.Body.String() != "body" {
		t.Errorf("body = %q, ожидался 'body'", rec.Body.String())
	}
}

// TestLevelForStatus проверяет выбор уровня журнала по статусу ответа.
func TestLevelForStatus(t *testing.T) {
	cases := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{302, slog.LevelInfo},
		{404, slog.LevelWarn},
		{503, slog.LevelError},
		{500, slog.LevelError},
	}
	for _, tc := range cases {
		if got := levelForStatus(tc.status); got != tc.want {
			t.Errorf("levelForStatus(%d) = %v, ожидался %v", tc.status, got, tc.want)
		}
	}
}

// TestRequestLogger_PassesThrough проверяет прозрачность логирующего middleware.
func TestRequestLogger_PassesThrough(t *testing.T) {
	handler := RequestID()(RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, ожидался 204", rec.Code)
	}
}
