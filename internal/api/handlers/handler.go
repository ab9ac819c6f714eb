// handler.go — основной обработчик API Inkwell.
// Объединяет каталог, доставку содержимого, фиды и health-обработчики;
// маршрутизацию выполняет server.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/inkwell-books/inkwell/internal/api/errors"
	"github.com/inkwell-books/inkwell/internal/catalog"
	"github.com/inkwell-books/inkwell/internal/feed"
	"github.com/inkwell-books/inkwell/internal/service"
)

// APIHandler — основной обработчик API Inkwell.
// Делегирует запросы в сервисный слой и построитель фидов.
type APIHandler struct {
	catalogService *service.CatalogService
	mediaService   *service.MediaService
	store          *catalog.Store
	feedBuilder    *feed.Builder
	health         *HealthHandler
	openapiJSON    []byte
	logger         *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// openapiJSON — сериализованный OpenAPI-контракт для /openapi.json.
func NewAPIHandler(
	catalogService *service.CatalogService,
	mediaService *service.MediaService,
	store *catalog.Store,
	feedBuilder *feed.Builder,
	health *HealthHandler,
	openapiJSON []byte,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		catalogService: catalogService,
		mediaService:   mediaService,
		store:          store,
		feedBuilder:    feedBuilder,
		health:         health,
		openapiJSON:    openapiJSON,
		logger:         logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPI — OpenAPI-контракт в JSON.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapiJSON)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID извлекает числовой path-параметр.
func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return id, nil
}

// queryInt извлекает числовой query-параметр с значением по умолчанию.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

// pageParams извлекает page_number и max_items из query string.
func pageParams(r *http.Request, defaultItems int) (page, maxItems int, err error) {
	page, err = queryInt(r, "page_number", 0)
	if err != nil {
		return 0, 0, err
	}
	maxItems, err = queryInt(r, "max_items", defaultItems)
	if err != nil {
		return 0, 0, err
	}
	return page, maxItems, nil
}

// searchParams извлекает query_name и search_type из query string.
func searchParams(r *http.Request) (query string, searchType service.SearchType) {
	query = r.URL.Query().Get("query_name")
	searchType = service.SearchType(r.URL.Query().Get("search_type"))
	if searchType == "" {
		searchType = service.SearchFast
	}
	return query, searchType
}

// respond отправляет результат сервисного вызова либо ошибку.
func respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		apierrors.FromService(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
