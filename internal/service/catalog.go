// catalog.go — сервис чтения каталога: списки, карточки, поиск.
// Координирует catalog.Store, пагинацию и Prometheus-метрики.
// Каталог неизменяем после загрузки, поэтому сервис не кэширует ничего
// сверх самого Store.
package service

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/inkwell-books/inkwell/internal/catalog"
	"github.com/inkwell-books/inkwell/internal/domain/model"
)

// Границы параметров запросов.
const (
	minQueryLen = 3
	maxQueryLen = 270

	// MinPageItems и MaxPageItems — допустимый диапазон max_items.
	MinPageItems = 1
	MaxPageItems = 1000

	// MaxPageNumber — верхняя граница page_number.
	MaxPageNumber = 100000

	// DefaultPageItems — max_items по умолчанию для списочных endpoints.
	DefaultPageItems = 10
)

// SearchType — стратегия поиска.
type SearchType string

const (
	// SearchFast — поиск по свёрнутой форме (без регистра и диакритики)
	SearchFast SearchType = "fast"
	// SearchSlow — поиск по точной подстроке
	SearchSlow SearchType = "slow"
)

// Prometheus-метрики каталога.
var (
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iw_search_total",
		Help: "Общее количество поисковых запросов (по стратегии).",
	}, []string{"search_type"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iw_search_duration_seconds",
		Help:    "Длительность поисковых запросов.",
		Buckets: prometheus.DefBuckets,
	})

	listsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iw_catalog_lists_total",
		Help: "Общее количество списочных запросов каталога (по коллекции).",
	}, []string{"collection"})
)

// CatalogService — сервис чтения каталога.
type CatalogService struct {
	store *catalog.Store
}

// NewCatalogService создаёт сервис чтения каталога.
func NewCatalogService(store *catalog.Store) *CatalogService {
	return &CatalogService{store: store}
}

// ListBooks возвращает страницу списка книг.
func (cs *CatalogService) ListBooks(page, maxItems int) (*catalog.Envelope, error) {
	listsTotal.WithLabelValues("books").Inc()
	return buildPage(cs.store.Books(), page, maxItems)
}

// BookByID возвращает книгу по идентификатору.
func (cs *CatalogService) BookByID(id int) (*model.Book, error) {
	book := cs.store.BookByID(id)
	if book == nil {
		return nil, NotFoundError(fmt.Sprintf("book %d not found", id))
	}
	return book, nil
}

// ListEntities возвращает страницу справочной коллекции (авторы,
// категории и т.д.), отсортированной по имени.
func (cs *CatalogService) ListEntities(kind model.EntityKind, page, maxItems int) (*catalog.Envelope, error) {
	listsTotal.WithLabelValues(string(kind)).Inc()
	return buildPage(cs.store.Entities(kind), page, maxItems)
}

// EntityByID возвращает справочную сущность по идентификатору.
func (cs *CatalogService) EntityByID(kind model.EntityKind, id int) (*model.Entity, error) {
	entity := cs.store.EntityByID(kind, id)
	if entity == nil {
		return nil, NotFoundError(fmt.Sprintf("%s %d not found", kind, id))
	}
	return entity, nil
}

// BooksByEntity возвращает страницу книг, привязанных к сущности.
// Отсутствующая сущность — 404 независимо от номера страницы.
func (cs *CatalogService) BooksByEntity(kind model.EntityKind, entityID, page, maxItems int) (*catalog.Envelope, error) {
	books, ok := cs.store.BooksByEntity(kind, entityID)
	if !ok {
		return nil, NotFoundError(fmt.Sprintf("%s %d not found", kind, entityID))
	}
	listsTotal.WithLabelValues(string(kind) + "_books").Inc()
	return buildPage(books, page, maxItems)
}

// ListCovers возвращает страницу метаданных обложек.
func (cs *CatalogService) ListCovers(page, maxItems int) (*catalog.Envelope, error) {
	listsTotal.WithLabelValues("covers").Inc()
	return buildPage(cs.store.Covers(), page, maxItems)
}

// CoverByID возвращает метаданные обложки.
func (cs *CatalogService) CoverByID(id int) (*model.MediaRecord, error) {
	record := cs.store.CoverByID(id)
	if record == nil {
		return nil, NotFoundError(fmt.Sprintf("cover %d not found", id))
	}
	return record, nil
}

// ListDocuments возвращает страницу метаданных документов.
func (cs *CatalogService) ListDocuments(page, maxItems int) (*catalog.Envelope, error) {
	listsTotal.WithLabelValues("documents").Inc()
	return buildPage(cs.store.Documents(), page, maxItems)
}

// DocumentByID возвращает метаданные документа.
func (cs *CatalogService) DocumentByID(id int) (*model.MediaRecord, error) {
	record := cs.store.DocumentByID(id)
	if record == nil {
		return nil, NotFoundError(fmt.Sprintf("document %d not found", id))
	}
	return record, nil
}

// SearchBooks выполняет поиск книг по названию.
func (cs *CatalogService) SearchBooks(query string, searchType SearchType, page, maxItems int) (*catalog.Envelope, error) {
	if err := ValidateSearch(query, searchType); err != nil {
		return nil, err
	}

	start := time.Now()
	searchTotal.WithLabelValues(string(searchType)).Inc()

	var books []*model.Book
	if searchType == SearchSlow {
		books = cs.store.SlowSearchBooks(query)
	} else {
		books = cs.store.FastSearchBooks(query)
	}

	searchDuration.Observe(time.Since(start).Seconds())
	if len(books) == 0 {
		return nil, NotFoundError("no books found")
	}
	return buildPage(books, page, maxItems)
}

// SearchEntities выполняет поиск справочных сущностей по имени.
func (cs *CatalogService) SearchEntities(kind model.EntityKind, query string, searchType SearchType, page, maxItems int) (*catalog.Envelope, error) {
	if err := ValidateSearch(query, searchType); err != nil {
		return nil, err
	}

	start := time.Now()
	searchTotal.WithLabelValues(string(searchType)).Inc()

	var entities []*model.Entity
	if searchType == SearchSlow {
		entities = cs.store.SlowSearchEntities(kind, query)
	} else {
		entities = cs.store.FastSearchEntities(kind, query)
	}

	searchDuration.Observe(time.Since(start).Seconds())
	if len(entities) == 0 {
		return nil, NotFoundError(fmt.Sprintf("no %s found", kindPlural(kind)))
	}
	return buildPage(entities, page, maxItems)
}

// kindPlural возвращает множественную форму вида сущности для
// сообщений о пустом результате поиска.
func kindPlural(kind model.EntityKind) string {
	if kind == model.KindCategory {
		return "categories"
	}
	return string(kind) + "s"
}

// buildPage проверяет параметры пагинации и собирает страницу ответа.
// Выход за пределы страниц и некорректные параметры — 400.
func buildPage[T any](items []T, page, maxItems int) (*catalog.Envelope, error) {
	if page < 0 || page > MaxPageNumber {
		return nil, ValidationError(fmt.Sprintf(
			"page_number must be between 0 and %d, got %d", MaxPageNumber, page))
	}
	if maxItems < MinPageItems || maxItems > MaxPageItems {
		return nil, ValidationError(fmt.Sprintf(
			"max_items must be between %d and %d, got %d", MinPageItems, MaxPageItems, maxItems))
	}
	env, err := catalog.BuildEnvelope(items, page, maxItems)
	if err != nil {
		return nil, ValidationError(err.Error())
	}
	return env, nil
}

// ValidateSearch проверяет параметры поиска: длина запроса 3..270
// символов, стратегия fast или slow.
func ValidateSearch(query string, searchType SearchType) error {
	n := utf8.RuneCountInString(query)
	if n < minQueryLen || n > maxQueryLen {
		return ValidationError(fmt.Sprintf(
			"query_name must be between %d and %d characters, got %d",
			minQueryLen, maxQueryLen, n))
	}
	if searchType != SearchFast && searchType != SearchSlow {
		return ValidationError(fmt.Sprintf("search_type must be fast or slow, got %q", searchType))
	}
	return nil
}
