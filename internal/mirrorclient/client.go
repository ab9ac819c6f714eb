// Пакет mirrorclient — HTTP-клиент облачного зеркала и резолвер источника.
//
// Зеркальные URL короткоживущие и шардированы по хостам, поэтому готовность
// зеркала нельзя предсказать статически: перед каждой отдачей выполняется
// дешёвый probe-запрос к redirect-endpoint зеркала. Итог probe — явное
// трёхвариантное решение Resolution: стримить через прокси, отдать клиенту
// redirect или уйти на платформу обмена.
package mirrorclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultHostPattern — допустимая форма хоста, на который зеркало
// перенаправляет за содержимым. Защита от следования на неожиданный
// или подменённый redirect-target.
const DefaultHostPattern = `^https://doc-[0-9a-z]+-[0-9a-z]+-docs\.googleusercontent\.com/.+`

// Prometheus-метрики probe.
var (
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iw_mirror_probes_total",
		Help: "Количество probe-запросов к облачному зеркалу (по решению).",
	}, []string{"decision"})

	probeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iw_mirror_probe_duration_seconds",
		Help:    "Длительность probe-запроса к облачному зеркалу.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Decision — выбранный путь доставки содержимого.
type Decision int

const (
	// DecisionBridge — зеркало недоступно, источник — платформа обмена.
	DecisionBridge Decision = iota
	// DecisionStream — зеркало готово отдавать байты, стримим через прокси.
	DecisionStream
	// DecisionRedirect — зеркало отдаёт redirect, клиент следует сам.
	DecisionRedirect
)

// String возвращает метку решения для логов и метрик.
func (d Decision) String() string {
	switch d {
	case DecisionStream:
		return "stream"
	case DecisionRedirect:
		return "redirect"
	default:
		return "bridge"
	}
}

// Resolution — результат резолва источника для медиа-записи.
type Resolution struct {
	// Decision — выбранный путь доставки
	Decision Decision
	// URL — итоговый зеркальный URL (пустой при DecisionBridge)
	URL string
}

// Options — параметры клиента зеркала.
type Options struct {
	// BaseURL — endpoint зеркала, к которому дописывается mirror id
	BaseURL string
	// HostPattern — регулярное выражение допустимого итогового URL
	// (пустая строка — DefaultHostPattern)
	HostPattern string
	// ProbeTimeout — ограничение probe-запроса (защита от зависания
	// на медленной третьей стороне)
	ProbeTimeout time.Duration
	// StreamTimeout — ограничение полной отдачи содержимого
	StreamTimeout time.Duration
	// StreamOn200 — при probe-статусе 200 стримить через прокси;
	// false — всегда отдавать redirect на валидированный URL
	StreamOn200 bool
	// CacheSize, CacheTTL — параметры LRU-кэша результатов probe.
	// TTL держат коротким: зеркальные URL быстро протухают.
	CacheSize int
	CacheTTL  time.Duration
}

// Client — клиент облачного зеркала. Создаётся один раз и разделяется
// всеми запросами процесса; пул соединений внутри http.Transport.
type Client struct {
	probeClient  *http.Client
	streamClient *http.Client
	baseURL      string
	hostPattern  *regexp.Regexp
	streamOn200  bool
	cache        *expirable.LRU[string, Resolution]
	logger       *slog.Logger
}

// New создаёт клиент зеркала.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	pattern := opts.HostPattern
	if pattern == "" {
		pattern = DefaultHostPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("компиляция host pattern зеркала: %w", err)
	}

	transport := &http.Transport{
		// Настройка пула idle-соединений для эффективного переиспользования
		MaxIdleConnsPerHost: 10,
	}

	return &Client{
		probeClient: &http.Client{
			Timeout:   opts.ProbeTimeout,
			Transport: transport,
		},
		streamClient: &http.Client{
			Timeout:   opts.StreamTimeout,
			Transport: transport,
		},
		baseURL:     opts.BaseURL,
		hostPattern: re,
		streamOn200: opts.StreamOn200,
		cache:       expirable.NewLRU[string, Resolution](opts.CacheSize, nil, opts.CacheTTL),
		logger:      logger.With(slog.String("component", "mirror_client")),
	}, nil
}

// Resolve выполняет probe зеркала и возвращает решение об источнике.
//
// Алгоритм: GET {baseURL}{mirrorID} со следованием redirect; итоговый URL
// сверяется с host pattern. Статус 200 на валидном хосте — зеркало готово
// отдавать байты (DecisionStream либо DecisionRedirect по политике
// StreamOn200). Иной статус на валидном хосте — DecisionRedirect. Невалидный
// хост, ошибка сети или пустой mirrorID — DecisionBridge: сбой зеркала
// поглощается, запрос деградирует на платформу обмена.
func (c *Client) Resolve(ctx context.Context, mirrorID string) Resolution {
	if mirrorID == "" {
		return Resolution{Decision: DecisionBridge}
	}

	if cached, ok := c.cache.Get(mirrorID); ok {
		return cached
	}

	res := c.probe(ctx, mirrorID)
	probesTotal.WithLabelValues(res.Decision.String()).Inc()
	c.cache.Add(mirrorID, res)
	return res
}

// probe — сам probe-запрос, без кэша.
func (c *Client) probe(ctx context.Context, mirrorID string) Resolution {
	start := time.Now()
	defer func() {
		probeDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+mirrorID, http.NoBody)
	if err != nil {
		c.logger.Error("Ошибка создания probe-запроса",
			slog.String("mirror_id", mirrorID),
			slog.String("error", err.Error()),
		)
		return Resolution{Decision: DecisionBridge}
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		c.logger.Debug("Probe зеркала не удался, деградация на платформу обмена",
			slog.String("mirror_id", mirrorID),
			slog.String("error", err.Error()),
		)
		return Resolution{Decision: DecisionBridge}
	}
	// Тело probe не читаем — интересны только итоговый URL и статус
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	if !c.hostPattern.MatchString(finalURL) {
		c.logger.Warn("Итоговый URL зеркала не прошёл валидацию хоста",
			slog.String("mirror_id", mirrorID),
			slog.String("url", finalURL),
		)
		return Resolution{Decision: DecisionBridge}
	}

	if resp.StatusCode == http.StatusOK && c.streamOn200 {
		return Resolution{Decision: DecisionStream, URL: finalURL}
	}
	return Resolution{Decision: DecisionRedirect, URL: finalURL}
}

// Open выполняет streaming-загрузку содержимого по зеркальному URL.
// Возвращает *http.Response — вызывающий код ОБЯЗАН закрыть resp.Body.
func (c *Client) Open(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса к зеркалу: %w", err)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос содержимого зеркала: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("зеркало вернуло неожиданный статус %d", resp.StatusCode)
	}

	// Не закрываем resp.Body — вызывающий код отвечает за это (streaming)
	return resp, nil
}
