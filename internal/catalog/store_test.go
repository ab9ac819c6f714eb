package catalog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwell-books/inkwell/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// testDump — каталог из трёх книг: два автора, одна категория,
// книга без обложки и книга без автора.
func testDump() *Dump {
	return &Dump{
		Books: []*model.Book{
			{
				ID:        1,
				MessageID: 1001,
				Title:     strPtr("Memórias Póstumas"),
				Date:      1700000100,
				Author:    &model.Entity{ID: 10, Name: "Machado de Assis"},
				Category:  &model.Entity{ID: 20, Name: "Fiction"},
				Cover: &model.MediaRecord{
					ID: 501, MimeType: "image/jpeg", FileSize: 2048,
					FileExtension: "jpg", Date: 1700000100, MirrorID: "mir-cover-1",
					Resolution: &model.Resolution{Width: 600, Height: 800},
				},
				Documents: []*model.MediaRecord{
					{ID: 601, MimeType: "application/pdf", FileSize: 1 << 20,
						FileExtension: "pdf", Date: 1700000100, MessageID: 1001},
				},
			},
			{
				ID:        2,
				MessageID: 1002,
				Title:     strPtr("Dom Casmurro"),
				Date:      1700000200,
				Author:    &model.Entity{ID: 10, Name: "Machado de Assis"},
				Category:  &model.Entity{ID: 20, Name: "Fiction"},
				Documents: []*model.MediaRecord{
					{ID: 602, MimeType: "application/epub+zip", FileSize: 512,
						FileExtension: "epub", Date: 1700000200, MirrorID: "mir-doc-2", MessageID: 1002},
				},
			},
			{
				ID:        3,
				MessageID: 1003,
				Title:     strPtr("Чистый код"),
				Date:      1700000300,
				Author:    &model.Entity{ID: 11, Name: "Robert Martin"},
				Documents: []*model.MediaRecord{
					{ID: 603, MimeType: "application/pdf", FileSize: 4096,
						FileExtension: "pdf", Date: 1700000300, MessageID: 1003},
				},
			},
		},
	}
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	s := New(testLogger())
	if err := s.LoadDump(testDump()); err != nil {
		t.Fatalf("LoadDump() error = %v", err)
	}
	return s
}

// TestLoadDump_BuildsIndexes проверяет построение коллекций и индексов.
func TestLoadDump_BuildsIndexes(t *testing.T) {
	s := loadedStore(t)

	if !s.IsReady() {
		t.Errorf("IsReady() = false, ожидался загруженный каталог")
	}
	if got := s.CountBooks(); got != 3 {
		t.Errorf("CountBooks() = %d, ожидалось 3", got)
	}
	if got := len(s.Covers()); got != 1 {
		t.Errorf("обложек = %d, ожидалась 1", got)
	}
	if got := len(s.Documents()); got != 3 {
		t.Errorf("документов = %d, ожидалось 3", got)
	}
	if got := len(s.Entities(model.KindAuthor)); got != 2 {
		t.Errorf("авторов = %d, ожидалось 2", got)
	}
	if got := len(s.Entities(model.KindCategory)); got != 1 {
		t.Errorf("категорий = %d, ожидалась 1", got)
	}
	// Нет нарраторов в дампе
	if got := len(s.Entities(model.KindNarrator)); got != 0 {
		t.Errorf("нарраторов = %d, ожидался 0", got)
	}
}

// TestLoadDump_DuplicateBookID проверяет отклонение дампа с дубликатом
// идентификатора книги.
func TestLoadDump_DuplicateBookID(t *testing.T) {
	dump := testDump()
	dump.Books[1].ID = dump.Books[0].ID

	s := New(testLogger())
	if err := s.LoadDump(dump); err == nil {
		t.Fatalf("LoadDump() error = nil, ожидалась ошибка дубликата")
	}
}

// TestLoadDump_InvalidMedia проверяет отклонение медиа-записи без источников.
func TestLoadDump_InvalidMedia(t *testing.T) {
	dump := testDump()
	dump.Books[0].Documents[0].MessageID = 0
	dump.Books[0].Documents[0].MirrorID = ""

	s := New(testLogger())
	if err := s.LoadDump(dump); err == nil {
		t.Fatalf("LoadDump() error = nil, ожидалась ошибка валидации медиа")
	}
}

// TestLoadDump_FillsBookID проверяет заполнение обратной ссылки BookID
// у вложенных медиа-записей.
func TestLoadDump_FillsBookID(t *testing.T) {
	s := loadedStore(t)

	doc := s.DocumentByID(601)
	if doc == nil {
		t.Fatalf("DocumentByID(601) = nil")
	}
	if doc.BookID != 1 {
		t.Errorf("BookID = %d, ожидался 1", doc.BookID)
	}
	if book := s.BookOf(doc); book == nil || book.ID != 1 {
		t.Errorf("BookOf() вернул не книгу-владельца")
	}
}

// TestLookupsReturnNilForMissing проверяет nil для несуществующих id.
func TestLookupsReturnNilForMissing(t *testing.T) {
	s := loadedStore(t)

	if s.BookByID(999) != nil {
		t.Errorf("BookByID(999) != nil")
	}
	if s.CoverByID(999) != nil {
		t.Errorf("CoverByID(999) != nil")
	}
	if s.DocumentByID(999) != nil {
		t.Errorf("DocumentByID(999) != nil")
	}
	if s.EntityByID(model.KindAuthor, 999) != nil {
		t.Errorf("EntityByID(author, 999) != nil")
	}
}

// TestEntities_SortedByName проверяет сортировку сущностей по имени.
func TestEntities_SortedByName(t *testing.T) {
	s := loadedStore(t)

	authors := s.Entities(model.KindAuthor)
	if len(authors) != 2 {
		t.Fatalf("авторов = %d, ожидалось 2", len(authors))
	}
	if authors[0].Name != "Machado de Assis" || authors[1].Name != "Robert Martin" {
		t.Errorf("порядок авторов = [%s, %s], ожидалась сортировка по имени",
			authors[0].Name, authors[1].Name)
	}
}

// TestBooksByEntity проверяет индекс книг по сущности и признак существования.
func TestBooksByEntity(t *testing.T) {
	s := loadedStore(t)

	books, ok := s.BooksByEntity(model.KindAuthor, 10)
	if !ok {
		t.Fatalf("ok = false, автор 10 существует")
	}
	if len(books) != 2 {
		t.Errorf("книг автора 10 = %d, ожидалось 2", len(books))
	}
	if got := s.CountBooksByEntity(model.KindAuthor, 10); got != 2 {
		t.Errorf("CountBooksByEntity = %d, ожидалось 2", got)
	}

	// Несуществующая сущность
	if _, ok := s.BooksByEntity(model.KindAuthor, 999); ok {
		t.Errorf("ok = true для несуществующего автора")
	}
}

// TestFastSearchBooks проверяет поиск без учёта диакритики и регистра.
func TestFastSearchBooks(t *testing.T) {
	s := loadedStore(t)

	// Запрос без диакритики находит название с диакритикой
	results := s.FastSearchBooks("memorias")
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("FastSearchBooks('memorias') = %d результатов, ожидалась книга 1", len(results))
	}

	// Регистр не учитывается
	results = s.FastSearchBooks("DOM")
	if len(results) != 1 || results[0].ID != 2 {
		t.Errorf("FastSearchBooks('DOM') = %d результатов, ожидалась книга 2", len(results))
	}

	// Кириллица
	results = s.FastSearchBooks("чистый")
	if len(results) != 1 || results[0].ID != 3 {
		t.Errorf("FastSearchBooks('чистый') = %d результатов, ожидалась книга 3", len(results))
	}
}

// TestSlowSearchBooks проверяет точный поиск по подстроке.
func TestSlowSearchBooks(t *testing.T) {
	s := loadedStore(t)

	// Точная подстрока с диакритикой находится
	results := s.SlowSearchBooks("Memórias")
	if len(results) != 1 {
		t.Errorf("SlowSearchBooks('Memórias') = %d результатов, ожидался 1", len(results))
	}

	// Без диакритики slow-поиск НЕ находит
	results = s.SlowSearchBooks("Memorias")
	if len(results) != 0 {
		t.Errorf("SlowSearchBooks('Memorias') = %d результатов, ожидался 0", len(results))
	}
}

// TestFastSearchEntities проверяет поиск сущностей.
func TestFastSearchEntities(t *testing.T) {
	s := loadedStore(t)

	results := s.FastSearchEntities(model.KindAuthor, "machado")
	if len(results) != 1 || results[0].ID != 10 {
		t.Errorf("FastSearchEntities('machado') = %d результатов, ожидался автор 10", len(results))
	}

	results = s.SlowSearchEntities(model.KindAuthor, "Martin")
	if len(results) != 1 || results[0].ID != 11 {
		t.Errorf("SlowSearchEntities('Martin') = %d результатов, ожидался автор 11", len(results))
	}
}

// TestLoadFile проверяет загрузку каталога из JSON-файла.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `{"books":[{"id":1,"message_id":1001,"title":"Test Book","date":1700000000,
		"author":{"id":10,"name":"Author"},
		"documents":[{"id":601,"mime_type":"application/pdf","file_size":100,
		"file_extension":"pdf","date":1700000000,"message_id":1001}]}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("запись тестового дампа: %v", err)
	}

	s := New(testLogger())
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if s.CountBooks() != 1 {
		t.Errorf("CountBooks() = %d, ожидалась 1", s.CountBooks())
	}
}

// TestLoadFile_MissingFile проверяет ошибку для несуществующего пути.
func TestLoadFile_MissingFile(t *testing.T) {
	s := New(testLogger())
	if err := s.LoadFile("/nonexistent/catalog.json"); err == nil {
		t.Fatalf("LoadFile() error = nil, ожидалась ошибка чтения")
	}
}

// TestCheckReady проверяет статусы readiness-проверки каталога.
func TestCheckReady(t *testing.T) {
	s := New(testLogger())
	if status, _ := s.CheckReady(); status != "fail" {
		t.Errorf("status = %q до загрузки, ожидался 'fail'", status)
	}

	if err := s.LoadDump(testDump()); err != nil {
		t.Fatalf("LoadDump() error = %v", err)
	}
	if status, _ := s.CheckReady(); status != "ok" {
		t.Errorf("status = %q после загрузки, ожидался 'ok'", status)
	}
}
