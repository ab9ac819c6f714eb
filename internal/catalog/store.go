// Пакет catalog — потокобезопасное in-memory хранилище каталога книг.
//
// Каталог строится один раз при старте из JSON-дампа (Load) и неизменяем
// до завершения процесса: никакой мутации и удаления в runtime.
// Обеспечивает быстрый lookup по идентификатору, упорядоченные списки,
// индексы книг по сущностям и два режима поиска (fast/slow)
// без обращения к диску.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/inkwell-books/inkwell/internal/domain/model"
)

// Dump — формат JSON-дампа каталога. Справочные сущности и медиа-записи
// вложены в книги; коллекции и индексы выводятся при загрузке.
type Dump struct {
	Books []*model.Book `json:"books"`
}

// entityKinds — все виды справочных сущностей в фиксированном порядке.
var entityKinds = []model.EntityKind{
	model.KindAuthor,
	model.KindArtist,
	model.KindNarrator,
	model.KindPublisher,
	model.KindCategory,
	model.KindType,
	model.KindYear,
}

// Store — in-memory каталог. Использует sync.RWMutex как общую точку
// синхронизации; после загрузки данные не меняются, поэтому методы
// возвращают разделяемые указатели без копирования.
type Store struct {
	mu     sync.RWMutex
	ready  bool
	logger *slog.Logger

	books    []*model.Book
	bookByID map[int]*model.Book

	covers       []*model.MediaRecord
	documents    []*model.MediaRecord
	coverByID    map[int]*model.MediaRecord
	documentByID map[int]*model.MediaRecord

	entities      map[model.EntityKind][]*model.Entity
	entityByID    map[model.EntityKind]map[int]*model.Entity
	booksByEntity map[model.EntityKind]map[int][]*model.Book

	// Предвычисленные свёрнутые строки для fast-поиска
	foldedTitles map[int]string
	foldedNames  map[model.EntityKind]map[int]string
}

// New создаёт пустой каталог. Для заполнения вызовите LoadFile или LoadDump.
func New(logger *slog.Logger) *Store {
	return &Store{
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// LoadFile загружает каталог из JSON-дампа по указанному пути.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение дампа каталога %s: %w", path, err)
	}

	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("разбор дампа каталога %s: %w", path, err)
	}

	return s.LoadDump(&dump)
}

// LoadDump строит каталог из дампа: валидирует медиа-записи, выводит
// коллекции сущностей (отсортированные по имени), медиа-коллекции и
// индексы книг по сущностям. Замещает текущее содержимое.
func (s *Store) LoadDump(dump *Dump) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books = make([]*model.Book, 0, len(dump.Books))
	s.bookByID = make(map[int]*model.Book, len(dump.Books))
	s.covers = nil
	s.documents = nil
	s.coverByID = make(map[int]*model.MediaRecord)
	s.documentByID = make(map[int]*model.MediaRecord)
	s.entities = make(map[model.EntityKind][]*model.Entity)
	s.entityByID = make(map[model.EntityKind]map[int]*model.Entity)
	s.booksByEntity = make(map[model.EntityKind]map[int][]*model.Book)
	s.foldedTitles = make(map[int]string, len(dump.Books))
	s.foldedNames = make(map[model.EntityKind]map[int]string)

	for _, kind := range entityKinds {
		s.entityByID[kind] = make(map[int]*model.Entity)
		s.booksByEntity[kind] = make(map[int][]*model.Book)
		s.foldedNames[kind] = make(map[int]string)
	}

	for _, book := range dump.Books {
		if book == nil {
			continue
		}
		if _, dup := s.bookByID[book.ID]; dup {
			return fmt.Errorf("дубликат идентификатора книги %d в дампе", book.ID)
		}

		s.books = append(s.books, book)
		s.bookByID[book.ID] = book
		if book.Title != nil {
			s.foldedTitles[book.ID] = Fold(*book.Title)
		}

		// Обложка
		if book.Cover != nil {
			if err := book.Cover.Validate(); err != nil {
				return fmt.Errorf("книга %d: %w", book.ID, err)
			}
			if book.Cover.BookID == 0 {
				book.Cover.BookID = book.ID
			}
			s.covers = append(s.covers, book.Cover)
			s.coverByID[book.Cover.ID] = book.Cover
		}

		// Документы
		for _, doc := range book.Documents {
			if err := doc.Validate(); err != nil {
				return fmt.Errorf("книга %d: %w", book.ID, err)
			}
			if doc.BookID == 0 {
				doc.BookID = book.ID
			}
			s.documents = append(s.documents, doc)
			s.documentByID[doc.ID] = doc
		}

		// Справочные сущности
		for _, kind := range entityKinds {
			ref := book.EntityRef(kind)
			if ref == nil {
				continue
			}
			if _, seen := s.entityByID[kind][ref.ID]; !seen {
				s.entityByID[kind][ref.ID] = ref
				s.entities[kind] = append(s.entities[kind], ref)
				s.foldedNames[kind][ref.ID] = Fold(ref.Name)
			}
			s.booksByEntity[kind][ref.ID] = append(s.booksByEntity[kind][ref.ID], book)
		}
	}

	// Сущности отсортированы по имени — как при инициализации каталога
	for _, kind := range entityKinds {
		sort.Slice(s.entities[kind], func(i, j int) bool {
			return s.entities[kind][i].Name < s.entities[kind][j].Name
		})
	}

	s.ready = true

	s.logger.Info("Каталог загружен",
		slog.Int("books", len(s.books)),
		slog.Int("covers", len(s.covers)),
		slog.Int("documents", len(s.documents)),
	)

	return nil
}

// IsReady возвращает true, если каталог загружен и готов к использованию.
func (s *Store) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// CountBooks возвращает количество книг в каталоге.
func (s *Store) CountBooks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Books возвращает все книги в порядке каталога.
func (s *Store) Books() []*model.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.books
}

// BookByID возвращает книгу по идентификатору. nil — книга не найдена.
func (s *Store) BookByID(id int) *model.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookByID[id]
}

// Covers возвращает все обложки в порядке каталога.
func (s *Store) Covers() []*model.MediaRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.covers
}

// CoverByID возвращает обложку по идентификатору. nil — не найдена.
func (s *Store) CoverByID(id int) *model.MediaRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coverByID[id]
}

// Documents возвращает все документы в порядке каталога.
func (s *Store) Documents() []*model.MediaRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents
}

// DocumentByID возвращает документ по идентификатору. nil — не найден.
func (s *Store) DocumentByID(id int) *model.MediaRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentByID[id]
}

// BookOf возвращает книгу-владельца медиа-записи. nil — книга не найдена.
func (s *Store) BookOf(media *model.MediaRecord) *model.Book {
	if media == nil {
		return nil
	}
	return s.BookByID(media.BookID)
}

// Entities возвращает сущности указанного вида, отсортированные по имени.
func (s *Store) Entities(kind model.EntityKind) []*model.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities[kind]
}

// EntityByID возвращает сущность по виду и идентификатору. nil — не найдена.
func (s *Store) EntityByID(kind model.EntityKind, id int) *model.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entityByID[kind][id]
}

// BooksByEntity возвращает книги, ссылающиеся на сущность.
// Второй результат — false, если сущность не существует.
func (s *Store) BooksByEntity(kind model.EntityKind, entityID int) ([]*model.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.entityByID[kind][entityID]; !ok {
		return nil, false
	}
	return s.booksByEntity[kind][entityID], true
}

// CheckReady — проверка готовности каталога для readiness probe.
func (s *Store) CheckReady() (status, message string) {
	if !s.IsReady() {
		return "fail", "каталог не загружен"
	}
	return "ok", fmt.Sprintf("%d книг", s.CountBooks())
}

// CountBooksByEntity возвращает количество книг, ссылающихся на сущность.
func (s *Store) CountBooksByEntity(kind model.EntityKind, entityID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.booksByEntity[kind][entityID])
}

// FastSearchBooks ищет книги по подстроке в предвычисленном свёрнутом
// названии (без диакритики, в нижнем регистре).
func (s *Store) FastSearchBooks(term string) []*model.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folded := Fold(term)
	var results []*model.Book
	for _, book := range s.books {
		if strings.Contains(s.foldedTitles[book.ID], folded) {
			results = append(results, book)
		}
	}
	return results
}

// SlowSearchBooks ищет книги по точной подстроке в оригинальном названии.
func (s *Store) SlowSearchBooks(term string) []*model.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*model.Book
	for _, book := range s.books {
		if book.Title != nil && strings.Contains(*book.Title, term) {
			results = append(results, book)
		}
	}
	return results
}

// FastSearchEntities ищет сущности по подстроке в свёрнутом имени.
func (s *Store) FastSearchEntities(kind model.EntityKind, term string) []*model.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folded := Fold(term)
	var results []*model.Entity
	for _, entity := range s.entities[kind] {
		if strings.Contains(s.foldedNames[kind][entity.ID], folded) {
			results = append(results, entity)
		}
	}
	return results
}

// SlowSearchEntities ищет сущности по точной подстроке в оригинальном имени.
func (s *Store) SlowSearchEntities(kind model.EntityKind, term string) []*model.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*model.Entity
	for _, entity := range s.entities[kind] {
		if strings.Contains(entity.Name, term) {
			results = append(results, entity)
		}
	}
	return results
}
