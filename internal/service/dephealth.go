// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Inkwell мониторит:
//   - мост платформы обмена — HTTP checker к health endpoint (critical:
//     без моста недоставляемы записи без зеркала)
//   - облачное зеркало — HTTP checker к базовому URL (non-critical:
//     при деградации зеркала доставка продолжается через мост)
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения (e.g. "inkwell")
//   - group — имя группы в метриках (IW_DEPHEALTH_GROUP)
//   - bridgeURL — URL моста платформы обмена
//   - mirrorURL — базовый URL облачного зеркала
//   - checkInterval — интервал проверки зависимостей (IW_DEPHEALTH_CHECK_INTERVAL)
//   - isEntry — при true добавляет лейбл isentry=yes ко всем зависимостям (DEPHEALTH_ISENTRY)
func NewDephealthService(
	serviceID string,
	group string,
	bridgeURL string,
	mirrorURL string,
	checkInterval time.Duration,
	isEntry bool,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, bridgeURL, mirrorURL, checkInterval, isEntry, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	bridgeURL string,
	mirrorURL string,
	checkInterval time.Duration,
	isEntry bool,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, bridgeURL, mirrorURL, checkInterval, isEntry,
		logger, dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(
	serviceID string,
	group string,
	bridgeURL string,
	mirrorURL string,
	checkInterval time.Duration,
	isEntry bool,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	// Опции зависимости моста
	bridgeDepOpts := []dephealth.DependencyOption{
		dephealth.FromURL(bridgeURL),
		dephealth.WithHTTPHealthPath("/health/ready"),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(true),
	}
	if isEntry {
		bridgeDepOpts = append(bridgeDepOpts, dephealth.WithLabel("isentry", "yes"))
	}

	// Для HTTPS-зависимостей проверяем сертификаты
	if parsed, err := url.Parse(bridgeURL); err == nil && parsed.Scheme == "https" {
		bridgeDepOpts = append(bridgeDepOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	opts := make([]dephealth.Option, 0, 3+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP("bridge", bridgeDepOpts...),
	)

	// Зеркало опционально: при пустом URL зависимость не регистрируется.
	// Non-critical: деградация зеркала переключает доставку на мост,
	// а не валит сервис.
	if mirrorURL != "" {
		mirrorDepOpts := []dephealth.DependencyOption{
			dephealth.FromURL(mirrorURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(false),
		}
		if isEntry {
			mirrorDepOpts = append(mirrorDepOpts, dephealth.WithLabel("isentry", "yes"))
		}
		if parsed, err := url.Parse(mirrorURL); err == nil && parsed.Scheme == "https" {
			mirrorDepOpts = append(mirrorDepOpts, dephealth.WithHTTPTLSSkipVerify(false))
		}
		opts = append(opts, dephealth.HTTP("mirror", mirrorDepOpts...))
	}

	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (мост + зеркало)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// CheckReady — проверка моста для readiness probe. Деградация зеркала
// итоговый статус не роняет, она видна в метриках dephealth.
func (ds *DephealthService) CheckReady() (status, message string) {
	health := ds.Health()
	if ok, found := health["bridge"]; found && !ok {
		return "fail", "мост платформы обмена недоступен"
	}
	return "ok", ""
}
