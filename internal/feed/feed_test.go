package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/inkwell-books/inkwell/internal/domain/model"
)

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }
func intPtr(v int) *int       { return &v }

// testBook — книга со всеми атрибутами для тестов фидов.
func testBook() *model.Book {
	return &model.Book{
		ID:        1,
		MessageID: 1001,
		Title:     strPtr("Memórias Póstumas"),
		Genre:     strPtr("Classic <Fiction>"),
		Duration:  i64Ptr(3725),
		TotalSize: i64Ptr(5 << 20),
		Chapters:  intPtr(12),
		Date:      1700000000,
		Author:    &model.Entity{ID: 10, Name: "Machado de Assis"},
		Publisher: &model.Entity{ID: 30, Name: "Garnier"},
		Category:  &model.Entity{ID: 20, Name: "Fiction"},
		Type:      &model.Entity{ID: 40, Name: "Audiobook"},
		Year:      &model.Entity{ID: 1881, Name: "1881"},
		Cover: &model.MediaRecord{
			ID: 501, MimeType: "image/jpeg", FileSize: 2048,
			FileExtension: "jpg", Date: 1700000000, MirrorID: "mir-1",
			Resolution: &model.Resolution{Width: 600, Height: 800},
		},
		Documents: []*model.MediaRecord{
			{ID: 601, MimeType: "application/pdf", FileSize: 5 << 20,
				FileExtension: "pdf", Date: 1700000000, MessageID: 1001},
		},
	}
}

func testBuilder() *Builder {
	return NewBuilder("Inkwell", "https://books.example.com/", "https://t.example.com/channel")
}

// TestToHuman проверяет форматирование размеров.
func TestToHuman(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Byte"},
		{512, "512 Bytes"},
		{1536, "1.50 KB"},
		{5 << 20, "5.00 MB"},
		{3 << 30, "3.00 GB"},
		{2 << 40, "2.00 TB"},
	}

	for _, tc := range cases {
		if got := ToHuman(tc.size); got != tc.want {
			t.Errorf("ToHuman(%d) = %q, ожидалось %q", tc.size, got, tc.want)
		}
	}
}

// TestCaption проверяет полное описание книги: порядок атрибутов,
// форматирование длительности и экранирование HTML.
func TestCaption(t *testing.T) {
	got := Caption(testBook())

	for _, want := range []string{
		"<strong>Type</strong>: <em>Audiobook</em><br>",
		"<strong>Category</strong>: <em>Fiction</em><br>",
		"<strong>Genre</strong>: <em>Classic &lt;Fiction&gt;</em><br>",
		"<strong>Duration</strong>: <em>1:02:05</em><br>",
		"<strong>Size</strong>: <em>5.00 MB</em><br>",
		"<strong>Chapters</strong>: <em>12</em><br>",
		"<strong>Year</strong>: <em>1881</em><br>",
		"<strong>Author</strong>: <em>Machado de Assis</em><br>",
		"<strong>Publisher</strong>: <em>Garnier</em><br>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Caption() не содержит %q\nполучено: %s", want, got)
		}
	}

	// Не заданные атрибуты опускаются
	if strings.Contains(got, "Volumes") {
		t.Errorf("Caption() содержит Volumes, атрибут не задан")
	}
	if strings.Contains(got, "Narrator") {
		t.Errorf("Caption() содержит Narrator, атрибут не задан")
	}
}

// TestBookTitle проверяет запасное название.
func TestBookTitle(t *testing.T) {
	book := testBook()
	if got := BookTitle(book); got != "Memórias Póstumas" {
		t.Errorf("BookTitle() = %q", got)
	}

	book.Title = nil
	if got := BookTitle(book); got != "Unknown" {
		t.Errorf("BookTitle() = %q для книги без названия, ожидался 'Unknown'", got)
	}
}

// TestDownloadName проверяет имя файла для ссылки скачивания.
func TestDownloadName(t *testing.T) {
	book := testBook()
	if got := DownloadName(book); got != "Memórias Póstumas.pdf" {
		t.Errorf("DownloadName() = %q", got)
	}

	book.Title = nil
	if got := DownloadName(book); got != "document.pdf" {
		t.Errorf("DownloadName() = %q для книги без названия, ожидался 'document.pdf'", got)
	}
}

// TestRSS проверяет структуру RSS-фида: канал, элемент, enclosure,
// ссылки и pubDate.
func TestRSS(t *testing.T) {
	b := testBuilder()
	out, err := b.RSS([]*model.Book{testBook()})
	if err != nil {
		t.Fatalf("RSS() error = %v", err)
	}
	feed := string(out)

	for _, want := range []string{
		`<rss version="2.0">`,
		"<title>Inkwell</title>",
		"<link>https://t.example.com/channel</link>",
		"<title>Memórias Póstumas</title>",
		"<link>https://t.example.com/channel/1001</link>",
		`<enclosure url="https://books.example.com/download/601" length="5242880" type="application/pdf"/>`,
		"<pubDate>Tue, 14 Nov 2023 22:13:20 GMT</pubDate>",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("RSS-фид не содержит %q", want)
		}
	}

	// Описание экранировано шаблоном: HTML-теги внутри description
	// представлены сущностями
	if !strings.Contains(feed, "&lt;img src=&#34;https://books.example.com/view/501&#34;") {
		t.Errorf("RSS-фид не содержит экранированную обложку в description")
	}
	if !strings.Contains(feed, "width=&#34;600&#34; height=&#34;800&#34;") {
		t.Errorf("RSS-фид не содержит размеры обложки")
	}
}

// TestRSS_SkipsBooksWithoutDocuments проверяет пропуск книг без документов.
func TestRSS_SkipsBooksWithoutDocuments(t *testing.T) {
	book := testBook()
	book.Documents = nil

	b := testBuilder()
	out, err := b.RSS([]*model.Book{book})
	if err != nil {
		t.Fatalf("RSS() error = %v", err)
	}
	if strings.Contains(string(out), "<item>") {
		t.Errorf("RSS-фид содержит item для книги без документов")
	}
}

// TestNavigationFeed проверяет навигационный OPDS-фид.
func TestNavigationFeed(t *testing.T) {
	b := testBuilder()
	updated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	out, err := b.NavigationFeed("Inkwell", "Browse the catalog", "/opds", "/opds?page_number=1",
		updated, b.RootEntries())
	if err != nil {
		t.Fatalf("NavigationFeed() error = %v", err)
	}
	feed := string(out)

	for _, want := range []string{
		`<feed xmlns="http://www.w3.org/2005/Atom"`,
		"<title>Inkwell</title>",
		"<updated>2025-06-01T12:00:00Z</updated>",
		`href="/opds/authors"`,
		`href="/opds/recent-books"`,
		`rel="next"`,
		`href="/opds?page_number=1"`,
		`href="/opds/search/books?query_name={searchTerms}"`,
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("навигационный фид не содержит %q", want)
		}
	}

	// Все 9 корневых записей
	if got := strings.Count(feed, "<entry>"); got != 9 {
		t.Errorf("записей = %d, ожидалось 9", got)
	}
}

// TestAcquisitionFeed проверяет acquisition-фид: ссылки opds image и
// acquisition, dc-атрибуты, категория.
func TestAcquisitionFeed(t *testing.T) {
	b := testBuilder()
	updated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	out, err := b.AcquisitionFeed("Recent books", "Recently added", "/opds/recent-books", "",
		updated, []*model.Book{testBook()})
	if err != nil {
		t.Fatalf("AcquisitionFeed() error = %v", err)
	}
	feed := string(out)

	for _, want := range []string{
		"<title>Memórias Póstumas</title>",
		"<id>book:1</id>",
		`rel="http://opds-spec.org/image"`,
		`href="https://books.example.com/view/501"`,
		`rel="http://opds-spec.org/acquisition"`,
		`href="https://books.example.com/download/601"`,
		"<name>Machado de Assis</name>",
		"<uri>/opds/authors/10</uri>",
		"<dc:publisher>Garnier</dc:publisher>",
		"<dc:issued>1881</dc:issued>",
		`<category term="20"`,
		`label="Fiction"/>`,
		"<summary>Audiobook</summary>",
	} {
		if !strings.Contains(feed, want) {
			t.Errorf("acquisition-фид не содержит %q", want)
		}
	}

	// Нет rel=next при пустом nextURL
	if strings.Contains(feed, `rel="next"`) {
		t.Errorf("фид содержит rel=next при пустом nextURL")
	}
}

// TestAcquisitionFeed_SkipsBooksWithoutDocuments проверяет пропуск
// книг без документов.
func TestAcquisitionFeed_SkipsBooksWithoutDocuments(t *testing.T) {
	book := testBook()
	book.Documents = nil

	b := testBuilder()
	out, err := b.AcquisitionFeed("Recent books", "", "/opds/recent-books", "",
		time.Now(), []*model.Book{book})
	if err != nil {
		t.Fatalf("AcquisitionFeed() error = %v", err)
	}
	if strings.Contains(string(out), "<entry>") {
		t.Errorf("acquisition-фид содержит entry для книги без документов")
	}
}
