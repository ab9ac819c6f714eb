// media.go — сервис доставки содержимого (обложки и документы).
// Полный pipeline: MediaRecord (каталог) → выбор источника (зеркало /
// платформа обмена) → потоковая передача клиенту.
//
// Rate limit gate опрашивается ТОЛЬКО на пути платформы обмена и только
// после выбора источника: запросы, обслуживаемые зеркалом, проходят даже
// во время глобального cool-down.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/inkwell-books/inkwell/internal/bridgeclient"
	"github.com/inkwell-books/inkwell/internal/catalog"
	"github.com/inkwell-books/inkwell/internal/domain/model"
	"github.com/inkwell-books/inkwell/internal/mirrorclient"
	"github.com/inkwell-books/inkwell/internal/ratelimit"
	"github.com/inkwell-books/inkwell/internal/relay"
)

// Prometheus-метрики доставки содержимого.
var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iw_deliveries_total",
		Help: "Общее количество запросов на доставку содержимого (по виду и исходу).",
	}, []string{"kind", "outcome"})

	deliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iw_delivery_duration_seconds",
		Help:    "Длительность доставки (от запроса до завершения передачи).",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	deliverySource = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iw_delivery_source_total",
		Help: "Источник доставки (mirror_stream / mirror_redirect / bridge).",
	}, []string{"source"})
)

// bridgeFailureRetryAfter — рекомендуемая пауза (секунды) при отказе
// последнего источника. Исчерпание источников — временное состояние,
// клиенту отвечаем 503 с Retry-After, а не 500.
const bridgeFailureRetryAfter = 60

// MediaService — сервис доставки обложек и документов.
type MediaService struct {
	store  *catalog.Store
	gate   *ratelimit.Gate
	mirror *mirrorclient.Client
	bridge *bridgeclient.Client
	relay  *relay.Relay
	logger *slog.Logger
}

// NewMediaService создаёт сервис доставки содержимого.
func NewMediaService(
	store *catalog.Store,
	gate *ratelimit.Gate,
	mirror *mirrorclient.Client,
	bridge *bridgeclient.Client,
	rl *relay.Relay,
	logger *slog.Logger,
) *MediaService {
	return &MediaService{
		store:  store,
		gate:   gate,
		mirror: mirror,
		bridge: bridge,
		relay:  rl,
		logger: logger.With(slog.String("component", "media_service")),
	}
}

// ServeDocument доставляет документ по идентификатору.
func (ms *MediaService) ServeDocument(ctx context.Context, w http.ResponseWriter, documentID int) error {
	record := ms.store.DocumentByID(documentID)
	if record == nil {
		deliveriesTotal.WithLabelValues("document", "not_found").Inc()
		return NotFoundError(fmt.Sprintf("document %d not found", documentID))
	}
	return ms.serve(ctx, w, record, "document")
}

// ServeCover доставляет обложку по идентификатору.
func (ms *MediaService) ServeCover(ctx context.Context, w http.ResponseWriter, coverID int) error {
	record := ms.store.CoverByID(coverID)
	if record == nil {
		deliveriesTotal.WithLabelValues("cover", "not_found").Inc()
		return NotFoundError(fmt.Sprintf("cover %d not found", coverID))
	}
	return ms.serve(ctx, w, record, "cover")
}

// serve выполняет полный pipeline доставки записи.
//
// Pipeline:
//  1. Если запись привязана к зеркалу — probe зеркала:
//     Stream  → передать тело с Content-Location
//     Redirect → 302 на прямой URL зеркала
//     Bridge  → перейти к шагу 2
//  2. Путь платформы обмена: проверить gate (cool-down → 503 + Retry-After),
//     запросить вложение у моста; FloodWait от моста регистрируется в gate
//     и транслируется в 503.
func (ms *MediaService) serve(ctx context.Context, w http.ResponseWriter, record *model.MediaRecord, kind string) error {
	start := time.Now()

	// 1. Попытка зеркала (ms.mirror == nil при отключённом зеркале)
	if record.HasMirror() && ms.mirror != nil {
		res := ms.mirror.Resolve(ctx, record.MirrorID)
		switch res.Decision {
		case mirrorclient.DecisionStream:
			deliverySource.WithLabelValues("mirror_stream").Inc()
			return ms.streamMirror(ctx, w, record, kind, res.URL, start)
		case mirrorclient.DecisionRedirect:
			deliverySource.WithLabelValues("mirror_redirect").Inc()
			deliveriesTotal.WithLabelValues(kind, "redirect").Inc()
			ms.logger.Debug("Редирект на зеркало",
				slog.Int("media_id", record.ID),
				slog.String("url", res.URL),
			)
			w.Header().Set("Location", res.URL)
			w.WriteHeader(http.StatusFound)
			return nil
		}
		// DecisionBridge — зеркало недоступно, идём через мост
		ms.logger.Debug("Зеркало недоступно, переход на платформу обмена",
			slog.Int("media_id", record.ID),
			slog.String("mirror_id", record.MirrorID),
		)
	}

	// 2. Путь платформы обмена
	deliverySource.WithLabelValues("bridge").Inc()
	return ms.streamBridge(ctx, w, record, kind, start)
}

// streamMirror передаёт содержимое с зеркала.
// Content-Location несёт прямой URL — клиент может повторить запрос
// напрямую, минуя прокси.
func (ms *MediaService) streamMirror(ctx context.Context, w http.ResponseWriter, record *model.MediaRecord, kind, url string, start time.Time) error {
	resp, err := ms.mirror.Open(ctx, url)
	if err != nil {
		// Probe прошёл, но открытие не удалось — зеркало деградировало
		// между probe и открытием; переключаемся на мост
		ms.logger.Warn("Открытие зеркала не удалось после успешного probe",
			slog.Int("media_id", record.ID),
			slog.String("error", err.Error()),
		)
		deliverySource.WithLabelValues("bridge").Inc()
		return ms.streamBridge(ctx, w, record, kind, start)
	}

	stream := relay.NewStream(resp.Body)
	defer stream.Close()

	ms.writeMediaHeaders(w, record, kind)
	w.Header().Set("Content-Location", url)
	w.WriteHeader(http.StatusOK)

	written, err := ms.relay.Copy(ctx, w, stream)
	if err != nil {
		// Заголовки уже отправлены — клиенту не помочь, фиксируем исход
		deliveriesTotal.WithLabelValues(kind, "stream_error").Inc()
		return nil
	}

	deliveriesTotal.WithLabelValues(kind, "success").Inc()
	deliveryDuration.Observe(time.Since(start).Seconds())
	ms.logger.Debug("Доставка с зеркала завершена",
		slog.Int("media_id", record.ID),
		slog.Int64("bytes", written),
	)
	return nil
}

// streamBridge передаёт содержимое через мост платформы обмена.
func (ms *MediaService) streamBridge(ctx context.Context, w http.ResponseWriter, record *model.MediaRecord, kind string, start time.Time) error {
	// Запись без message_id живёт только на зеркале; раз мы здесь,
	// зеркало уже недоступно — источники исчерпаны
	if record.MessageID == 0 {
		deliveriesTotal.WithLabelValues(kind, "bridge_error").Inc()
		ms.logger.Warn("Запись недоступна: зеркало не ответило, источника на платформе обмена нет",
			slog.Int("media_id", record.ID),
			slog.String("mirror_id", record.MirrorID),
		)
		return BridgeThrottledError(bridgeFailureRetryAfter)
	}

	// Gate опрашивается непосредственно перед обращением к платформе
	if res := ms.gate.Check(); !res.Allowed {
		deliveriesTotal.WithLabelValues(kind, "throttled").Inc()
		ms.logger.Warn("Запрос отклонён: глобальный cool-down",
			slog.Int("media_id", record.ID),
			slog.Int("retry_after", res.RetryAfter),
		)
		return ThrottledError(res.RetryAfter)
	}

	resp, err := ms.bridge.FetchAttachment(ctx, record.MessageID)
	if err != nil {
		var flood *bridgeclient.FloodWaitError
		if errors.As(err, &flood) {
			ms.gate.RecordThrottle(flood.RetryAfter)
			deliveriesTotal.WithLabelValues(kind, "throttled").Inc()
			return BridgeThrottledError(int(flood.RetryAfter.Seconds()))
		}
		deliveriesTotal.WithLabelValues(kind, "bridge_error").Inc()
		ms.logger.Error("Ошибка получения вложения от моста",
			slog.Int("media_id", record.ID),
			slog.Int64("message_id", record.MessageID),
			slog.String("error", err.Error()),
		)
		// Все источники исчерпаны — исход retryable, не internal
		return BridgeThrottledError(bridgeFailureRetryAfter)
	}

	stream := relay.NewStream(resp.Body)
	defer stream.Close()

	ms.writeMediaHeaders(w, record, kind)
	w.WriteHeader(http.StatusOK)

	written, err := ms.relay.Copy(ctx, w, stream)
	if err != nil {
		deliveriesTotal.WithLabelValues(kind, "stream_error").Inc()
		return nil
	}

	deliveriesTotal.WithLabelValues(kind, "success").Inc()
	deliveryDuration.Observe(time.Since(start).Seconds())
	ms.logger.Debug("Доставка через мост завершена",
		slog.Int("media_id", record.ID),
		slog.Int64("bytes", written),
	)
	return nil
}

// writeMediaHeaders выставляет заголовки ответа по метаданным записи.
// Имя файла в Content-Disposition — название книги-владельца; без
// названия — document.{ext} или cover.{ext} по виду содержимого.
func (ms *MediaService) writeMediaHeaders(w http.ResponseWriter, record *model.MediaRecord, kind string) {
	if record.MimeType != "" {
		w.Header().Set("Content-Type", record.MimeType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if record.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(record.FileSize, 10))
	}
	if record.Date > 0 {
		w.Header().Set("Last-Modified", time.Unix(record.Date, 0).UTC().Format(http.TimeFormat))
	}

	filename := kind
	if book := ms.store.BookOf(record); book != nil && book.Title != nil {
		filename = *book.Title
	}
	if record.FileExtension != "" {
		filename += "." + record.FileExtension
	}
	disposition := "inline"
	if kind == "document" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{
		"filename": filename,
	}))
}
