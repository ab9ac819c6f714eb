// main.go — точка входа Inkwell.
// Каталог → клиенты доставки → сервисы → HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/inkwell-books/inkwell/internal/api/handlers"
	"github.com/inkwell-books/inkwell/internal/api/middleware"
	"github.com/inkwell-books/inkwell/internal/bridgeclient"
	"github.com/inkwell-books/inkwell/internal/catalog"
	"github.com/inkwell-books/inkwell/internal/config"
	"github.com/inkwell-books/inkwell/internal/feed"
	"github.com/inkwell-books/inkwell/internal/mirrorclient"
	"github.com/inkwell-books/inkwell/internal/openapi"
	"github.com/inkwell-books/inkwell/internal/ratelimit"
	"github.com/inkwell-books/inkwell/internal/relay"
	"github.com/inkwell-books/inkwell/internal/server"
	"github.com/inkwell-books/inkwell/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Inkwell запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Загрузка каталога в память
	store := catalog.New(logger)
	if err := store.LoadFile(cfg.CatalogPath); err != nil {
		logger.Error("Ошибка загрузки каталога",
			slog.String("path", cfg.CatalogPath),
			slog.String("error", err.Error()),
		)
		log.Fatalf("Каталог не загружен: %v", err)
	}
	logger.Info("Каталог загружен",
		slog.String("path", cfg.CatalogPath),
		slog.Int("books", store.CountBooks()),
	)

	// 4. Клиенты доставки: gate, зеркало (опционально), мост, relay
	gate := ratelimit.New(logger)

	var mirror *mirrorclient.Client
	if cfg.MirrorBaseURL != "" {
		mirror, err = mirrorclient.New(mirrorclient.Options{
			BaseURL:       cfg.MirrorBaseURL,
			HostPattern:   cfg.MirrorHostPattern,
			ProbeTimeout:  cfg.MirrorProbeTimeout,
			StreamTimeout: cfg.MirrorStreamTimeout,
			StreamOn200:   cfg.MirrorStreamOn200,
			CacheSize:     cfg.MirrorCacheSize,
			CacheTTL:      cfg.MirrorCacheTTL,
		}, logger)
		if err != nil {
			log.Fatalf("Ошибка инициализации клиента зеркала: %v", err)
		}
	} else {
		logger.Info("Зеркало отключено (IW_MIRROR_BASE_URL не задан), доставка только через мост")
	}

	bridge := bridgeclient.New(cfg.BridgeURL, cfg.BridgeChannel, cfg.BridgeTimeout, logger)
	rl := relay.New(logger)

	// 5. Сервисный слой
	catalogService := service.NewCatalogService(store)
	mediaService := service.NewMediaService(store, gate, mirror, bridge, rl, logger)

	// 6. OpenAPI-контракт (валидируется при старте)
	openapiJSON, err := openapi.Load(context.Background())
	if err != nil {
		log.Fatalf("Ошибка загрузки OpenAPI-контракта: %v", err)
	}

	// 7. Мониторинг зависимостей (topologymetrics)
	var dephealthService *service.DephealthService
	if cfg.DephealthEnabled {
		dephealthService, err = service.NewDephealthService(
			"inkwell",
			cfg.DephealthGroup,
			cfg.BridgeURL,
			cfg.MirrorBaseURL,
			cfg.DephealthCheckInterval,
			cfg.DephealthIsEntry,
			logger,
		)
		if err != nil {
			log.Fatalf("Ошибка инициализации мониторинга зависимостей: %v", err)
		}
		if err := dephealthService.Start(context.Background()); err != nil {
			log.Fatalf("Ошибка запуска мониторинга зависимостей: %v", err)
		}
		defer dephealthService.Stop()
	}

	// 8. Обработчики
	var bridgeChecker handlers.ReadinessChecker
	if dephealthService != nil {
		bridgeChecker = dephealthService
	}
	healthHandler := handlers.NewHealthHandler(store, bridgeChecker)
	feedBuilder := feed.NewBuilder(cfg.SiteTitle, cfg.PublicURL, cfg.ChannelURL)
	apiHandler := handlers.NewAPIHandler(
		catalogService, mediaService, store, feedBuilder,
		healthHandler, openapiJSON, logger,
	)

	// 9. HTTP-сервер со сквозными middleware
	srv := server.New(cfg, logger, apiHandler,
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
		middleware.DefaultHeaders(),
	)

	// 10. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	logger.Info("Inkwell остановлен")
}
