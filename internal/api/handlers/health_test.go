package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubChecker — фиксированный результат проверки готовности.
type stubChecker struct {
	status  string
	message string
}

func (c *stubChecker) CheckReady() (string, string) { return c.status, c.message }

func readyResponse(t *testing.T, h *HealthHandler) (int, *healthReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp healthReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("ошибка разбора ответа: %v", err)
	}
	return rec.Code, &resp
}

// TestHealthLive проверяет ответ liveness probe.
func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, ожидался 200", rec.Code)
	}
	var resp healthLiveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("ошибка разбора ответа: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, ожидался ok", resp.Status)
	}
	if resp.Service != "inkwell" {
		t.Errorf("service = %q, ожидался inkwell", resp.Service)
	}
}

// TestHealthReady_AllOK проверяет 200 при здоровых зависимостях.
func TestHealthReady_AllOK(t *testing.T) {
	h := NewHealthHandler(
		&stubChecker{status: "ok", message: "каталог загружен"},
		&stubChecker{status: "ok"},
	)
	code, resp := readyResponse(t, h)

	if code != http.StatusOK {
		t.Errorf("status = %d, ожидался 200", code)
	}
	if resp.Status != "ok" {
		t.Errorf("итоговый статус = %q, ожидался ok", resp.Status)
	}
	if resp.Checks.Catalog.Message != "каталог загружен" {
		t.Errorf("catalog message = %q", resp.Checks.Catalog.Message)
	}
}

// TestHealthReady_Degraded проверяет, что degraded не роняет readiness.
func TestHealthReady_Degraded(t *testing.T) {
	h := NewHealthHandler(
		&stubChecker{status: "ok"},
		&stubChecker{status: "degraded", message: "мост отвечает медленно"},
	)
	code, resp := readyResponse(t, h)

	if code != http.StatusOK {
		t.Errorf("status = %d, degraded должен возвращать 200", code)
	}
	if resp.Status != "degraded" {
		t.Errorf("итоговый статус = %q, ожидался degraded", resp.Status)
	}
}

// TestHealthReady_Fail проверяет 503 при отказе зависимости.
func TestHealthReady_Fail(t *testing.T) {
	h := NewHealthHandler(
		&stubChecker{status: "fail", message: "каталог не загружен"},
		&stubChecker{status: "ok"},
	)
	code, resp := readyResponse(t, h)

	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, ожидался 503", code)
	}
	if resp.Status != "fail" {
		t.Errorf("итоговый статус = %q, ожидался fail", resp.Status)
	}
}

// TestHealthReady_NilCheckers проверяет отключённые проверки.
func TestHealthReady_NilCheckers(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	code, resp := readyResponse(t, h)

	if code != http.StatusOK {
		t.Errorf("status = %d, ожидался 200", code)
	}
	if resp.Checks.Bridge.Status != "ok" {
		t.Errorf("bridge status = %q, отключённая проверка должна быть ok", resp.Checks.Bridge.Status)
	}
}
