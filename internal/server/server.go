// Пакет server — HTTP-сервер Inkwell с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-books/inkwell/internal/api/handlers"
	"github.com/inkwell-books/inkwell/internal/config"
	"github.com/inkwell-books/inkwell/internal/domain/model"
)

// entityRoute — связка URL-сегмента справочной коллекции с её видом
// и именем path-параметра идентификатора.
type entityRoute struct {
	segment string
	kind    model.EntityKind
	param   string
}

// Справочные коллекции каталога. Порядок определяет порядок регистрации
// маршрутов, на поведение не влияет.
var entityRoutes = []entityRoute{
	{"authors", model.KindAuthor, "author_id"},
	{"artists", model.KindArtist, "artist_id"},
	{"narrators", model.KindNarrator, "narrator_id"},
	{"publishers", model.KindPublisher, "publisher_id"},
	{"categories", model.KindCategory, "category_id"},
	{"types", model.KindType, "type_id"},
	{"years", model.KindYear, "year_id"},
}

// Server — HTTP-сервер Inkwell.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// middlewares — сквозные middleware (request id, logging, metrics,
// default headers), добавляются в порядке переданного среза.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, middlewares ...func(http.Handler) http.Handler) *Server {
	router := chi.NewRouter()

	// Применяем переданные middleware
	for _, mw := range middlewares {
		router.Use(mw)
	}

	// --- Каталог ---

	router.Get("/books", handler.ListBooks)
	router.Get("/books/{book_id}", handler.GetBook)

	for _, er := range entityRoutes {
		router.Get("/"+er.segment, handler.ListEntities(er.kind))
		router.Get(fmt.Sprintf("/%s/{%s}", er.segment, er.param), handler.GetBooksByEntity(er.kind, er.param))
	}

	router.Get("/covers", handler.ListCovers)
	router.Get("/covers/{cover_id}", handler.GetCover)
	router.Get("/documents", handler.ListDocuments)
	router.Get("/documents/{document_id}", handler.GetDocument)

	// --- Поиск ---

	router.Get("/search/books", handler.SearchBooks)
	for _, er := range entityRoutes {
		router.Get("/search/"+er.segment, handler.SearchEntities(er.kind))
	}

	// --- Доставка содержимого ---

	router.Get("/download/{document_id}", handler.DownloadDocument)
	router.Get("/view/{cover_id}", handler.ViewCover)

	// --- Фиды ---

	router.Get("/rss", handler.RSSFeed)
	router.Get("/opds", handler.OPDSRoot)
	router.Get("/opds/books/{book_id}", handler.OPDSBook)
	router.Get("/opds/search/books", handler.OPDSSearchBooks)
	router.Get("/opds/recent-books", handler.OPDSRecentBooks)
	router.Get("/opds/old-books", handler.OPDSOldBooks)
	for _, er := range entityRoutes {
		router.Get("/opds/"+er.segment, handler.OPDSEntities(er.kind, er.segment))
		router.Get(fmt.Sprintf("/opds/%s/{%s}", er.segment, er.param), handler.OPDSBooksByEntity(er.kind, er.segment, er.param))
	}

	// --- Служебные endpoints ---

	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)
	router.Get("/openapi.json", handler.GetOpenAPI)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Handler возвращает корневой HTTP-обработчик сервера.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
