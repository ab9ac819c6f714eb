// caption.go — текстовые описания книги для фидов.
package feed

import (
	"fmt"
	"html"
	"strings"

	"github.com/inkwell-books/inkwell/internal/domain/model"
)

// Caption собирает полное HTML-описание книги для RSS: все известные
// атрибуты построчно (strong/em), в фиксированном порядке.
func Caption(book *model.Book) string {
	var b strings.Builder

	if book.Type != nil {
		captionLine(&b, "Type", book.Type.Name)
	}
	if book.Category != nil {
		captionLine(&b, "Category", book.Category.Name)
	}
	if book.Genre != nil {
		captionLine(&b, "Genre", *book.Genre)
	}
	if book.Duration != nil {
		captionLine(&b, "Duration", formatDuration(*book.Duration))
	}
	if book.TotalSize != nil {
		captionLine(&b, "Size", ToHuman(*book.TotalSize))
	}
	if book.Volumes != nil {
		captionLine(&b, "Volumes", fmt.Sprintf("%d", *book.Volumes))
	}
	if book.Chapters != nil {
		captionLine(&b, "Chapters", fmt.Sprintf("%d", *book.Chapters))
	}
	if book.Year != nil {
		captionLine(&b, "Year", book.Year.Name)
	}
	if book.Author != nil {
		captionLine(&b, "Author", book.Author.Name)
	}
	if book.Narrator != nil {
		captionLine(&b, "Narrator", book.Narrator.Name)
	}
	if book.Publisher != nil {
		captionLine(&b, "Publisher", book.Publisher.Name)
	}

	return b.String()
}

// Content собирает сокращённое описание книги для OPDS-контента
// (без категории, года, автора и издательства — они передаются
// отдельными полями записи).
func Content(book *model.Book) string {
	var b strings.Builder

	if book.Type != nil {
		captionLine(&b, "Kind", book.Type.Name)
	}
	if book.Genre != nil {
		captionLine(&b, "Genre", *book.Genre)
	}
	if book.Duration != nil {
		captionLine(&b, "Duration", formatDuration(*book.Duration))
	}
	if book.TotalSize != nil {
		captionLine(&b, "Size", ToHuman(*book.TotalSize))
	}
	if book.Volumes != nil {
		captionLine(&b, "Volumes", fmt.Sprintf("%d", *book.Volumes))
	}
	if book.Chapters != nil {
		captionLine(&b, "Chapters", fmt.Sprintf("%d", *book.Chapters))
	}
	if book.Narrator != nil {
		captionLine(&b, "Narrator", book.Narrator.Name)
	}

	return b.String()
}

func captionLine(b *strings.Builder, label, value string) {
	b.WriteString("<strong>")
	b.WriteString(label)
	b.WriteString("</strong>: <em>")
	b.WriteString(html.EscapeString(value))
	b.WriteString("</em><br>")
}

// formatDuration форматирует длительность в секундах как H:MM:SS.
func formatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// BookTitle возвращает название книги или "Unknown".
func BookTitle(book *model.Book) string {
	if book.Title != nil {
		return *book.Title
	}
	return "Unknown"
}

// DownloadName возвращает имя файла для ссылки скачивания:
// название книги с расширением первого документа, либо document.{ext}.
func DownloadName(book *model.Book) string {
	name := "document"
	if book.Title != nil {
		name = *book.Title
	}
	if len(book.Documents) > 0 && book.Documents[0].FileExtension != "" {
		name += "." + book.Documents[0].FileExtension
	}
	return name
}
