// Пакет config — загрузка и валидация конфигурации Inkwell
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Inkwell.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера. Большой: через сервер
	// проксируются файлы в сотни мегабайт (по умолчанию 15m)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Каталог ---

	// Путь к JSON-файлу каталога (обязательный)
	CatalogPath string
	// Заголовок каталога в RSS/OPDS-лентах
	SiteTitle string

	// --- Внешние URL ---

	// Публичный базовый URL сервиса (для ссылок в лентах)
	PublicURL string
	// URL канала платформы обмена (для ссылок на сообщения-источники)
	ChannelURL string

	// --- Мост платформы обмена ---

	// URL моста платформы обмена (обязательный)
	BridgeURL string
	// Идентификатор канала, из которого мост забирает вложения
	BridgeChannel string
	// Таймаут запросов к мосту (по умолчанию 10m — полная выгрузка файла)
	BridgeTimeout time.Duration

	// --- Облачное зеркало ---

	// Базовый URL зеркала; пустая строка отключает зеркальный путь
	MirrorBaseURL string
	// Регулярное выражение допустимого итогового URL зеркала
	MirrorHostPattern string
	// Таймаут probe-запроса к зеркалу (по умолчанию 5s)
	MirrorProbeTimeout time.Duration
	// Таймаут полной отдачи содержимого с зеркала (по умолчанию 10m)
	MirrorStreamTimeout time.Duration
	// Стримить через прокси при probe-статусе 200 (по умолчанию true)
	MirrorStreamOn200 bool
	// Размер LRU-кэша результатов probe (по умолчанию 1024)
	MirrorCacheSize int
	// TTL кэша результатов probe (по умолчанию 5m)
	MirrorCacheTTL time.Duration

	// --- Dependency Health (topologymetrics) ---

	// Включение мониторинга зависимостей (по умолчанию true)
	DephealthEnabled bool
	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей (по умолчанию 30s)
	DephealthCheckInterval time.Duration
	// Лейбл isentry=yes на всех зависимостях
	DephealthIsEntry bool
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// IW_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("IW_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("IW_PORT: %w", err)
	}

	// IW_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("IW_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("IW_LOG_LEVEL: %w", err)
	}

	// IW_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("IW_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("IW_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	// IW_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("IW_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IW_HTTP_READ_TIMEOUT: %w", err)
	}

	// IW_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 15m)
	cfg.HTTPWriteTimeout, err = getEnvDuration("IW_HTTP_WRITE_TIMEOUT", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("IW_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// IW_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("IW_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IW_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// IW_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("IW_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IW_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Каталог ---

	// IW_CATALOG_PATH — путь к JSON-файлу каталога (обязательный)
	cfg.CatalogPath, err = getEnvRequired("IW_CATALOG_PATH")
	if err != nil {
		return nil, err
	}

	// IW_SITE_TITLE — заголовок каталога в лентах (по умолчанию Inkwell)
	cfg.SiteTitle = getEnvDefault("IW_SITE_TITLE", "Inkwell")

	// --- Внешние URL ---

	// IW_PUBLIC_URL — публичный базовый URL сервиса
	cfg.PublicURL = strings.TrimRight(getEnvDefault("IW_PUBLIC_URL", "http://localhost:8080"), "/")

	// IW_CHANNEL_URL — URL канала платформы обмена
	cfg.ChannelURL = strings.TrimRight(os.Getenv("IW_CHANNEL_URL"), "/")

	// --- Мост платформы обмена ---

	// IW_BRIDGE_URL — URL моста платформы обмена (обязательный)
	cfg.BridgeURL, err = getEnvRequired("IW_BRIDGE_URL")
	if err != nil {
		return nil, err
	}
	cfg.BridgeURL = strings.TrimRight(cfg.BridgeURL, "/")

	// IW_BRIDGE_CHANNEL — идентификатор канала моста (обязательный)
	cfg.BridgeChannel, err = getEnvRequired("IW_BRIDGE_CHANNEL")
	if err != nil {
		return nil, err
	}

	// IW_BRIDGE_TIMEOUT — таймаут запросов к мосту (по умолчанию 10m)
	cfg.BridgeTimeout, err = getEnvDuration("IW_BRIDGE_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("IW_BRIDGE_TIMEOUT: %w", err)
	}

	// --- Облачное зеркало ---

	// IW_MIRROR_BASE_URL — базовый URL зеркала (пусто — зеркало отключено)
	cfg.MirrorBaseURL = strings.TrimRight(os.Getenv("IW_MIRROR_BASE_URL"), "/")

	// IW_MIRROR_HOST_PATTERN — regexp допустимого итогового URL
	cfg.MirrorHostPattern = os.Getenv("IW_MIRROR_HOST_PATTERN")

	// IW_MIRROR_PROBE_TIMEOUT — таймаут probe-запроса (по умолчанию 5s)
	cfg.MirrorProbeTimeout, err = getEnvDuration("IW_MIRROR_PROBE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IW_MIRROR_PROBE_TIMEOUT: %w", err)
	}

	// IW_MIRROR_STREAM_TIMEOUT — таймаут полной отдачи (по умолчанию 10m)
	cfg.MirrorStreamTimeout, err = getEnvDuration("IW_MIRROR_STREAM_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("IW_MIRROR_STREAM_TIMEOUT: %w", err)
	}

	// IW_MIRROR_STREAM_ON_200 — стримить при probe-статусе 200 (по умолчанию true)
	cfg.MirrorStreamOn200, err = getEnvBool("IW_MIRROR_STREAM_ON_200", true)
	if err != nil {
		return nil, fmt.Errorf("IW_MIRROR_STREAM_ON_200: %w", err)
	}

	// IW_MIRROR_CACHE_SIZE — размер кэша probe-результатов (по умолчанию 1024)
	cfg.MirrorCacheSize, err = getEnvInt("IW_MIRROR_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("IW_MIRROR_CACHE_SIZE: %w", err)
	}

	// IW_MIRROR_CACHE_TTL — TTL кэша probe-результатов (по умолчанию 5m)
	cfg.MirrorCacheTTL, err = getEnvDuration("IW_MIRROR_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("IW_MIRROR_CACHE_TTL: %w", err)
	}

	// --- Dependency Health ---

	// IW_DEPHEALTH_ENABLED — включение мониторинга зависимостей (по умолчанию true)
	cfg.DephealthEnabled, err = getEnvBool("IW_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("IW_DEPHEALTH_ENABLED: %w", err)
	}

	// IW_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию inkwell)
	cfg.DephealthGroup = getEnvDefault("IW_DEPHEALTH_GROUP", "inkwell")

	// IW_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 30s)
	cfg.DephealthCheckInterval, err = getEnvDuration("IW_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IW_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// IW_DEPHEALTH_ISENTRY — лейбл isentry=yes на зависимостях
	cfg.DephealthIsEntry, err = getEnvBool("IW_DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("IW_DEPHEALTH_ISENTRY: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
