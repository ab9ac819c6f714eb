// Пакет bridgeclient — клиент REST-моста платформы обмена сообщениями.
//
// Мост держит одну авторизованную сессию на процесс: сессия открывается
// лениво при первом обращении (double-checked под RWMutex — дорогая
// инициализация выполняется не более одного раза даже при конкурентных
// первых запросах) и живёт до завершения процесса. Конкурентные логические
// запросы мультиплексируются через один http.Client.
//
// Throttle-сигнал моста (429 + Retry-After) поднимается как *FloodWaitError;
// дальше им распоряжается rate limit gate.
package bridgeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FloodWaitError — мост сообщил о перегрузке и времени ожидания.
type FloodWaitError struct {
	// RetryAfter — время до следующей допустимой попытки
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("платформа обмена требует ожидания %s", e.RetryAfter)
}

// sessionInfo — открытая сессия моста с временем истечения.
type sessionInfo struct {
	id        string
	expiresAt time.Time
}

// Client — клиент REST-моста платформы обмена.
type Client struct {
	httpClient *http.Client
	bridgeURL  string
	channel    string
	logger     *slog.Logger

	// Кэш сессии (thread-safe, ленивое открытие)
	mu      sync.RWMutex
	session *sessionInfo
}

// New создаёт клиент моста. Сессия при этом не открывается —
// она будет открыта лениво при первом fetch.
// bridgeURL — базовый URL моста (например, http://bridge:8090).
// channel — идентификатор канала с содержимым каталога.
// timeout — таймаут HTTP-запросов к мосту (включая отдачу содержимого).
func New(bridgeURL, channel string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
		},
		bridgeURL: strings.TrimRight(bridgeURL, "/"),
		channel:   channel,
		logger:    logger.With(slog.String("component", "bridge_client")),
	}
}

// FetchAttachment запрашивает содержимое вложения сообщения.
// Возвращает *http.Response — вызывающий код ОБЯЗАН закрыть resp.Body.
//
// Формат запроса: GET {bridgeURL}/v1/channels/{channel}/messages/{id}/attachment
// При 429 возвращает *FloodWaitError с задержкой из Retry-After.
func (c *Client) FetchAttachment(ctx context.Context, messageID int64) (*http.Response, error) {
	session, err := c.getSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("открытие сессии моста: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/channels/%s/messages/%d/attachment", c.bridgeURL, c.channel, messageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса FetchAttachment: %w", err)
	}
	req.Header.Set("X-Session-Id", session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос вложения %d к мосту: %w", messageID, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// Не закрываем resp.Body — вызывающий код отвечает за это (streaming)
		return resp, nil
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		resp.Body.Close()
		c.logger.Warn("Мост сообщил throttle",
			slog.Int64("message_id", messageID),
			slog.Duration("retry_after", retryAfter),
		)
		return nil, &FloodWaitError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("мост вернул статус %d для сообщения %d: %s",
			resp.StatusCode, messageID, string(body))
	}
}

// getSession возвращает идентификатор сессии моста.
// Использует кэш: валидная сессия (с запасом 30s до истечения)
// возвращается без обращения к мосту; иначе открывается новая.
func (c *Client) getSession(ctx context.Context) (string, error) {
	// Проверяем кэш (read lock)
	c.mu.RLock()
	if c.session != nil && time.Now().Before(c.session.expiresAt) {
		id := c.session.id
		c.mu.RUnlock()
		return id, nil
	}
	c.mu.RUnlock()

	// Открываем новую сессию (write lock)
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check после получения write lock
	if c.session != nil && time.Now().Before(c.session.expiresAt) {
		return c.session.id, nil
	}

	return c.openSession(ctx)
}

// openSession открывает новую сессию моста. Вызывается под write lock.
// POST {bridgeURL}/v1/session
func (c *Client) openSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeURL+"/v1/session", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("создание запроса session: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос session к мосту: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("мост вернул статус %d при открытии сессии: %s",
			resp.StatusCode, string(body))
	}

	var sessionResp struct {
		SessionID string `json:"session_id"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return "", fmt.Errorf("декодирование session response: %w", err)
	}

	if sessionResp.SessionID == "" {
		return "", fmt.Errorf("пустой session_id в ответе моста")
	}

	expiresIn := sessionResp.ExpiresIn
	if expiresIn <= 0 {
		// Мост без истечения сессии: держим её сутки и переоткрываем
		expiresIn = int((24 * time.Hour).Seconds())
	}

	// Кэшируем сессию (с запасом 30 секунд до истечения)
	c.session = &sessionInfo{
		id:        sessionResp.SessionID,
		expiresAt: time.Now().Add(time.Duration(expiresIn)*time.Second - 30*time.Second),
	}

	c.logger.Info("Сессия моста открыта",
		slog.Int("expires_in", expiresIn),
	)

	return sessionResp.SessionID, nil
}

// parseRetryAfter разбирает заголовок Retry-After (секунды).
// Непарсибельное или отсутствующее значение — консервативные 60 секунд.
func parseRetryAfter(value string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || secs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(secs) * time.Second
}
