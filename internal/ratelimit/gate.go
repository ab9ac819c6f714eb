// Пакет ratelimit — глобальный cool-down gate для платформы обмена.
//
// Платформа обмена при перегрузке сообщает время ожидания; на это время
// блокируются ВСЕ запросы к ней в рамках процесса (единый circuit breaker,
// не per-resource). Состояние — один дедлайн под мьютексом: конкурентные
// запросы всегда наблюдают согласованное оставшееся время.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики gate.
var (
	throttleEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iw_throttle_events_total",
		Help: "Количество throttle-сигналов, полученных от платформы обмена.",
	})
	blockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iw_gate_blocked_total",
		Help: "Количество запросов, отклонённых gate во время cool-down.",
	})
	cooldownSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iw_gate_cooldown_seconds",
		Help: "Оставшееся время cool-down в секундах (0 — gate открыт).",
	})
)

// Result — результат проверки gate.
type Result struct {
	// Allowed — true, если запрос к платформе обмена разрешён
	Allowed bool
	// RetryAfter — секунды до открытия gate (только при Allowed=false)
	RetryAfter int
}

// Gate — процессный cool-down gate. Нулевое значение непригодно,
// используйте New.
type Gate struct {
	mu       sync.Mutex
	deadline time.Time
	now      func() time.Time
	logger   *slog.Logger
}

// New создаёт открытый gate.
func New(logger *slog.Logger) *Gate {
	return &Gate{
		now:    time.Now,
		logger: logger.With(slog.String("component", "rate_limit_gate")),
	}
}

// NewWithClock создаёт gate с внешними часами. Используется в тестах.
func NewWithClock(logger *slog.Logger, now func() time.Time) *Gate {
	g := New(logger)
	g.now = now
	return g
}

// Check проверяет состояние gate перед запросом к платформе обмена.
// Если cool-down не задан — Allowed. Если задан и истёк — состояние
// сбрасывается, Allowed. Иначе Blocked с оставшимися секундами;
// вызывающий код обязан вернуть 503 и НЕ обращаться к платформе.
func (g *Gate) Check() Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.deadline.IsZero() {
		return Result{Allowed: true}
	}

	remaining := g.deadline.Sub(g.now())
	if remaining <= 0 {
		g.deadline = time.Time{}
		cooldownSeconds.Set(0)
		g.logger.Info("Cool-down истёк, gate открыт")
		return Result{Allowed: true}
	}

	blockedTotal.Inc()
	cooldownSeconds.Set(remaining.Seconds())
	return Result{Allowed: false, RetryAfter: ceilSeconds(remaining)}
}

// RecordThrottle фиксирует throttle-сигнал платформы: cool-down до
// now+retryAfter. Более слабый (ранний) дедлайн не затирает действующий.
func (g *Gate) RecordThrottle(retryAfter time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	deadline := g.now().Add(retryAfter)
	if deadline.Before(g.deadline) {
		return
	}
	g.deadline = deadline

	throttleEventsTotal.Inc()
	cooldownSeconds.Set(retryAfter.Seconds())
	g.logger.Warn("Платформа обмена сообщила throttle, gate закрыт",
		slog.Duration("retry_after", retryAfter),
	)
}

// ceilSeconds округляет длительность вверх до целых секунд.
// Клиенту никогда не сообщается ожидание меньше фактического.
func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
