// Пакет relay — потоковая передача содержимого от источника к клиенту.
//
// Relay не буферизует тело целиком: читает источник кусками и сразу
// пишет в ResponseWriter (pull-модель — темп задаёт потребитель).
// Источник закрывается ровно один раз независимо от исхода передачи.
package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// chunkSize — размер куска при потоковой передаче.
const chunkSize = 64 * 1024

// Prometheus-метрики relay.
var (
	relayBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iw_relay_bytes_total",
		Help: "Общее количество байт, переданных через relay.",
	})

	relayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iw_relay_duration_seconds",
		Help:    "Длительность потоковой передачи (от первого байта до завершения).",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	activeRelays = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iw_active_relays",
		Help: "Количество активных (in-progress) потоковых передач.",
	})

	relaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iw_relays_total",
		Help: "Общее количество потоковых передач (по исходу).",
	}, []string{"outcome"})
)

// Stream — открытый источник содержимого для передачи клиенту.
// Закрытие источника выполняется ровно один раз (sync.Once):
// и нормальное завершение, и отмена, и ошибка записи приводят
// к одному и тому же освобождению ресурса.
type Stream struct {
	body      io.ReadCloser
	closeOnce sync.Once
	closeErr  error
}

// NewStream оборачивает источник содержимого.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{body: body}
}

// Close закрывает источник. Повторные вызовы безопасны и возвращают
// результат первого закрытия.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// Relay — копирование потоков с учётом отмены контекста.
type Relay struct {
	logger *slog.Logger
}

// New создаёт relay.
func New(logger *slog.Logger) *Relay {
	return &Relay{
		logger: logger.With(slog.String("component", "relay")),
	}
}

// Copy передаёт содержимое источника в w кусками по chunkSize.
// Между кусками проверяется ctx: отмена (уход клиента) прекращает
// передачу и освобождает источник. Если w поддерживает http.Flusher,
// каждый кусок сбрасывается немедленно — клиент получает байты по мере
// их поступления, а не после накопления всего тела.
//
// Возвращает количество переданных байт. Ошибка записи после отправки
// заголовков невосстановима для клиента — логируется и возвращается
// вызывающему коду только для учёта.
func (r *Relay) Copy(ctx context.Context, w http.ResponseWriter, stream *Stream) (int64, error) {
	start := time.Now()
	activeRelays.Inc()
	defer activeRelays.Dec()
	defer stream.Close()

	flusher, canFlush := w.(http.Flusher)

	buf := make([]byte, chunkSize)
	var written int64

	for {
		// Проверка отмены перед каждым чтением: уход клиента
		// не должен удерживать источник открытым
		select {
		case <-ctx.Done():
			relaysTotal.WithLabelValues("cancelled").Inc()
			r.logger.Debug("Передача прервана клиентом",
				slog.Int64("bytes_written", written),
			)
			return written, ctx.Err()
		default:
		}

		n, readErr := stream.body.Read(buf)
		if n > 0 {
			wn, writeErr := w.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				relaysTotal.WithLabelValues("write_error").Inc()
				r.logger.Error("Ошибка записи клиенту при передаче",
					slog.Int64("bytes_written", written),
					slog.String("error", writeErr.Error()),
				)
				return written, fmt.Errorf("запись клиенту: %w", writeErr)
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			relaysTotal.WithLabelValues("read_error").Inc()
			r.logger.Error("Ошибка чтения источника при передаче",
				slog.Int64("bytes_written", written),
				slog.String("error", readErr.Error()),
			)
			return written, fmt.Errorf("чтение источника: %w", readErr)
		}
	}

	relaysTotal.WithLabelValues("success").Inc()
	relayBytesTotal.Add(float64(written))
	relayDuration.Observe(time.Since(start).Seconds())

	r.logger.Debug("Передача завершена",
		slog.Int64("bytes", written),
		slog.Duration("duration", time.Since(start)),
	)

	return written, nil
}
