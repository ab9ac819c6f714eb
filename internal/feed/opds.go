// opds.go — генерация OPDS 1.2 (Atom) каталогов.
//
// Два вида фидов: навигационные (корень, списки сущностей) и
// acquisition (страницы книг со ссылками на /download и /view).
package feed

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/inkwell-books/inkwell/internal/domain/model"
)

var opdsTemplate = template.Must(template.New("opds").Funcs(xmlFuncs).Parse(`<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:dc="http://purl.org/dc/terms/"
      xmlns:opds="http://opds-spec.org/2010/catalog"
      xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title>{{xml .Title}}</title>
  <updated>{{.Updated}}</updated>
  <link rel="search"
      href="/opds/search/books?query_name={searchTerms}"
      type="application/atom+xml"
      title="{{xml .SearchTitle}}"/>
  <author>
    <name>{{xml .SiteTitle}}</name>
    <uri>{{.ChannelURL}}</uri>
  </author>
  <subtitle>{{xml .Subtitle}}</subtitle>
  <link rel="self"
      href="{{.SelfURL}}"
      type="application/atom+xml"/>
{{if .NextURL}}  <link rel="next"
      href="{{.NextURL}}"
      type="application/atom+xml"
      title="Next"/>
{{end}}{{range .NavEntries}}  <entry>
    <title>{{xml .Title}}</title>
    <id>{{.ID}}</id>
    <updated>{{$.Updated}}</updated>
    <link type="application/atom+xml"
        href="{{.Href}}"/>
    <content type="text">{{xml .Content}}</content>
  </entry>
{{end}}{{range .BookEntries}}  <entry>
    <title>{{xml .Title}}</title>
    <id>book:{{.ID}}</id>
    <updated>{{.Updated}}</updated>
{{if .CoverHref}}    <link rel="http://opds-spec.org/image"
        href="{{.CoverHref}}"
        type="{{.CoverType}}"/>
{{end}}    <link rel="http://opds-spec.org/acquisition"
        href="{{.AcquisitionHref}}"
        type="{{.AcquisitionType}}"/>
{{if .AuthorName}}    <author>
      <name>{{xml .AuthorName}}</name>
      <uri>{{.AuthorURI}}</uri>
    </author>
{{end}}{{if .Publisher}}    <dc:publisher>{{xml .Publisher}}</dc:publisher>
{{end}}{{if .Issued}}    <dc:issued>{{.Issued}}</dc:issued>
{{end}}{{if .CategoryName}}    <category term="{{.CategoryID}}"
        label="{{xml .CategoryName}}"/>
{{end}}{{if .Summary}}    <summary>{{xml .Summary}}</summary>
{{end}}    <content type="html">{{xml .Content}}</content>
  </entry>
{{end}}</feed>
`))

// NavEntry — запись навигационного OPDS-фида.
type NavEntry struct {
	// Title — заголовок записи
	Title string
	// ID — atom-идентификатор (например, "author:12")
	ID string
	// Href — ссылка на вложенный фид
	Href string
	// Content — текстовое описание записи
	Content string
}

type opdsFeed struct {
	Title       string
	Updated     string
	Subtitle    string
	SelfURL     string
	NextURL     string
	SiteTitle   string
	ChannelURL  string
	SearchTitle string
	NavEntries  []NavEntry
	BookEntries []bookEntry
}

type bookEntry struct {
	Title           string
	ID              int
	Updated         string
	CoverHref       string
	CoverType       string
	AcquisitionHref string
	AcquisitionType string
	AuthorName      string
	AuthorURI       string
	Publisher       string
	Issued          string
	CategoryID      int
	CategoryName    string
	Summary         string
	Content         string
}

// NavigationFeed собирает навигационный OPDS-фид.
// nextURL пуст, если следующей страницы нет.
func (b *Builder) NavigationFeed(title, subtitle, selfURL, nextURL string, updated time.Time, entries []NavEntry) ([]byte, error) {
	return b.render(opdsFeed{
		Title:      title,
		Subtitle:   subtitle,
		SelfURL:    selfURL,
		NextURL:    nextURL,
		Updated:    updated.UTC().Format(time.RFC3339),
		NavEntries: entries,
	})
}

// AcquisitionFeed собирает OPDS-фид со страницей книг: ссылки на
// скачивание первого документа и обложку, атрибуты dc:*.
func (b *Builder) AcquisitionFeed(title, subtitle, selfURL, nextURL string, updated time.Time, books []*model.Book) ([]byte, error) {
	entries := make([]bookEntry, 0, len(books))
	for _, book := range books {
		if len(book.Documents) == 0 {
			continue
		}
		entries = append(entries, b.bookEntry(book))
	}
	return b.render(opdsFeed{
		Title:       title,
		Subtitle:    subtitle,
		SelfURL:     selfURL,
		NextURL:     nextURL,
		Updated:     updated.UTC().Format(time.RFC3339),
		BookEntries: entries,
	})
}

// RootEntries возвращает записи корневого навигационного фида:
// справочные коллекции и подборки книг.
func (b *Builder) RootEntries() []NavEntry {
	return []NavEntry{
		{Title: "Authors", ID: "authors", Href: "/opds/authors", Content: "Browse by author"},
		{Title: "Artists", ID: "artists", Href: "/opds/artists", Content: "Browse by artist"},
		{Title: "Narrators", ID: "narrators", Href: "/opds/narrators", Content: "Browse by narrator"},
		{Title: "Publishers", ID: "publishers", Href: "/opds/publishers", Content: "Browse by publisher"},
		{Title: "Categories", ID: "categories", Href: "/opds/categories", Content: "Browse by category"},
		{Title: "Types", ID: "types", Href: "/opds/types", Content: "Browse by type"},
		{Title: "Years", ID: "years", Href: "/opds/years", Content: "Browse by year"},
		{Title: "Recent books", ID: "recent-books", Href: "/opds/recent-books", Content: "Recently added books"},
		{Title: "Old books", ID: "old-books", Href: "/opds/old-books", Content: "Oldest books in the catalog"},
	}
}

func (b *Builder) bookEntry(book *model.Book) bookEntry {
	doc := book.Documents[0]
	entry := bookEntry{
		Title:           BookTitle(book),
		ID:              book.ID,
		Updated:         time.Unix(book.Date, 0).UTC().Format(time.RFC3339),
		AcquisitionHref: fmt.Sprintf("%s/download/%d", b.publicURL, doc.ID),
		AcquisitionType: doc.MimeType,
		Content: Content(book) + fmt.Sprintf(
			`<strong>Download</strong>: <em><a href="%s/download/%d">%s</a></em>`,
			b.publicURL, doc.ID, DownloadName(book)),
	}
	if book.Cover != nil {
		entry.CoverHref = fmt.Sprintf("%s/view/%d", b.publicURL, book.Cover.ID)
		entry.CoverType = book.Cover.MimeType
	}
	if book.Author != nil {
		entry.AuthorName = book.Author.Name
		entry.AuthorURI = fmt.Sprintf("/opds/authors/%d", book.Author.ID)
	}
	if book.Publisher != nil {
		entry.Publisher = book.Publisher.Name
	}
	if book.Year != nil {
		entry.Issued = book.Year.Name
	}
	if book.Category != nil {
		entry.CategoryID = book.Category.ID
		entry.CategoryName = book.Category.Name
	}
	if book.Type != nil {
		entry.Summary = book.Type.Name
	}
	return entry
}

func (b *Builder) render(feed opdsFeed) ([]byte, error) {
	feed.SiteTitle = b.title
	feed.ChannelURL = b.channelURL
	feed.SearchTitle = "Search " + b.title
	var buf bytes.Buffer
	if err := opdsTemplate.Execute(&buf, feed); err != nil {
		return nil, fmt.Errorf("сборка OPDS-фида: %w", err)
	}
	return buf.Bytes(), nil
}
