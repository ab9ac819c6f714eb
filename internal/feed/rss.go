// rss.go — генерация RSS 2.0 фида недавно добавленных книг.
package feed

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"
	"time"

	"github.com/inkwell-books/inkwell/internal/domain/model"
)

// Границы max_items для фидов.
const (
	MinFeedItems = 15
	MaxFeedItems = 5000

	// DefaultRSSItems — количество книг в RSS-фиде по умолчанию.
	DefaultRSSItems = 50
	// DefaultOPDSItems — max_items по умолчанию для OPDS-страниц.
	DefaultOPDSItems = 100
)

// xmlFuncs — функции шаблонов фидов. text/template не экранирует
// автоматически, поэтому экранирование XML-содержимого явное.
var xmlFuncs = template.FuncMap{
	"xml": html.EscapeString,
}

var rssTemplate = template.Must(template.New("rss").Funcs(xmlFuncs).Parse(`<?xml version="1.0" encoding="utf-8" ?>
<rss version="2.0">
  <channel>
    <title>{{xml .Title}}</title>
    <link>{{.ChannelURL}}</link>
    <description>{{xml .Description}}</description>
    <language>{{.Language}}</language>
    <category>Books</category>
    <ttl>60</ttl>
{{range .Items}}    <item>
      <title>{{xml .Title}}</title>
      <link>{{.Link}}</link>
      <guid isPermaLink="true">{{.Link}}</guid>
      <enclosure url="{{.EnclosureURL}}" length="{{.Length}}" type="{{.MimeType}}"/>
      <author>{{xml .Author}}</author>
      <pubDate>{{.PubDate}}</pubDate>
      <description>{{xml .Description}}</description>
    </item>
{{end}}  </channel>
</rss>
`))

// Builder собирает RSS и OPDS фиды каталога.
type Builder struct {
	title      string
	publicURL  string
	channelURL string
}

// NewBuilder создаёт построитель фидов.
// publicURL — внешний базовый URL API (для ссылок /download и /view),
// channelURL — ссылка на канал-источник каталога.
func NewBuilder(title, publicURL, channelURL string) *Builder {
	return &Builder{
		title:      title,
		publicURL:  strings.TrimRight(publicURL, "/"),
		channelURL: strings.TrimRight(channelURL, "/"),
	}
}

// Title возвращает заголовок каталога.
func (b *Builder) Title() string {
	return b.title
}

type rssFeed struct {
	Title       string
	ChannelURL  string
	Description string
	Language    string
	Items       []rssItem
}

type rssItem struct {
	Title        string
	Link         string
	EnclosureURL string
	Length       int64
	MimeType     string
	Author       string
	PubDate      string
	Description  string
}

// RSS собирает RSS 2.0 фид для переданных книг (порядок сохраняется,
// вызывающий код передаёт новейшие первыми). Книги без документов
// пропускаются: RSS-элемент без enclosure бесполезен для клиентов.
func (b *Builder) RSS(books []*model.Book) ([]byte, error) {
	items := make([]rssItem, 0, len(books))
	for _, book := range books {
		if len(book.Documents) == 0 {
			continue
		}
		doc := book.Documents[0]
		items = append(items, rssItem{
			Title:        BookTitle(book),
			Link:         fmt.Sprintf("%s/%d", b.channelURL, book.MessageID),
			EnclosureURL: fmt.Sprintf("%s/download/%d", b.publicURL, doc.ID),
			Length:       doc.FileSize,
			MimeType:     doc.MimeType,
			Author:       b.title,
			PubDate:      time.Unix(book.Date, 0).UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"),
			Description:  b.rssDescription(book, doc),
		})
	}

	var buf bytes.Buffer
	err := rssTemplate.Execute(&buf, rssFeed{
		Title:       b.title,
		ChannelURL:  b.channelURL,
		Description: "Recently added books",
		Language:    "en",
		Items:       items,
	})
	if err != nil {
		return nil, fmt.Errorf("сборка RSS-фида: %w", err)
	}
	return buf.Bytes(), nil
}

// rssDescription собирает HTML-описание элемента: обложка, атрибуты
// книги и ссылка на скачивание. Возвращает неэкранированный HTML —
// экранирование выполняет шаблон.
func (b *Builder) rssDescription(book *model.Book, doc *model.MediaRecord) string {
	var sb strings.Builder
	sb.WriteString("<p>")

	if book.Cover != nil {
		sb.WriteString(fmt.Sprintf(`<img src="%s/view/%d"`, b.publicURL, book.Cover.ID))
		if book.Cover.Resolution != nil {
			sb.WriteString(fmt.Sprintf(` width="%d" height="%d"`,
				book.Cover.Resolution.Width, book.Cover.Resolution.Height))
		}
		sb.WriteString(` referrerpolicy="no-referrer">`)
	}

	sb.WriteString(Caption(book))
	sb.WriteString(fmt.Sprintf(`<strong>Download</strong>: <em><a href="%s/download/%d">%s</a></em>`,
		b.publicURL, doc.ID, html.EscapeString(DownloadName(book))))
	sb.WriteString("</p>")
	return sb.String()
}
