// feeds.go — обработчики RSS и OPDS фидов.
// /rss — последние книги, /opds — навигационный корень и вложенные
// acquisition-фиды. Пагинация фидов: page_number + max_items (15..5000).
package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	apierrors "github.com/inkwell-books/inkwell/internal/api/errors"
	"github.com/inkwell-books/inkwell/internal/catalog"
	"github.com/inkwell-books/inkwell/internal/domain/model"
	"github.com/inkwell-books/inkwell/internal/feed"
	"github.com/inkwell-books/inkwell/internal/service"
)

// Человекочитаемые заголовки справочных коллекций в OPDS.
var opdsKindTitles = map[model.EntityKind]string{
	model.KindAuthor:    "Authors",
	model.KindArtist:    "Artists",
	model.KindNarrator:  "Narrators",
	model.KindPublisher: "Publishers",
	model.KindCategory:  "Categories",
	model.KindType:      "Types",
	model.KindYear:      "Years",
}

// feedPageParams извлекает и проверяет параметры пагинации фида.
func feedPageParams(r *http.Request, defaultItems int) (page, maxItems int, err error) {
	page, maxItems, err = pageParams(r, defaultItems)
	if err != nil {
		return 0, 0, err
	}
	if page < 0 || page > service.MaxPageNumber {
		return 0, 0, fmt.Errorf("page_number must be between 0 and %d, got %d", service.MaxPageNumber, page)
	}
	if maxItems < feed.MinFeedItems || maxItems > feed.MaxFeedItems {
		return 0, 0, fmt.Errorf("max_items must be between %d and %d, got %d",
			feed.MinFeedItems, feed.MaxFeedItems, maxItems)
	}
	return page, maxItems, nil
}

// catalogUpdated возвращает время последнего добавления в каталог.
func (h *APIHandler) catalogUpdated() time.Time {
	var latest int64
	for _, book := range h.store.Books() {
		if book.Date > latest {
			latest = book.Date
		}
	}
	if latest == 0 {
		return time.Now().UTC()
	}
	return time.Unix(latest, 0).UTC()
}

// booksByDate возвращает копию списка книг, отсортированную по дате.
func (h *APIHandler) booksByDate(newestFirst bool) []*model.Book {
	src := h.store.Books()
	books := make([]*model.Book, len(src))
	copy(books, src)
	sort.SliceStable(books, func(i, j int) bool {
		if newestFirst {
			return books[i].Date > books[j].Date
		}
		return books[i].Date < books[j].Date
	})
	return books
}

// writeFeed отправляет собранный фид с указанным Content-Type.
func writeFeed(w http.ResponseWriter, contentType string, body []byte, err error) {
	if err != nil {
		apierrors.InternalError(w, "failed to build feed")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// RSSFeed — GET /rss: последние добавленные книги.
func (h *APIHandler) RSSFeed(w http.ResponseWriter, r *http.Request) {
	maxItems, err := queryInt(r, "max_items", feed.DefaultRSSItems)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if maxItems < feed.MinFeedItems || maxItems > feed.MaxFeedItems {
		apierrors.ValidationError(w, fmt.Sprintf("max_items must be between %d and %d, got %d",
			feed.MinFeedItems, feed.MaxFeedItems, maxItems))
		return
	}

	books := h.booksByDate(true)
	if len(books) > maxItems {
		books = books[:maxItems]
	}

	body, err := h.feedBuilder.RSS(books)
	writeFeed(w, "application/rss+xml", body, err)
}

// OPDSRoot — GET /opds: навигационный корень каталога.
func (h *APIHandler) OPDSRoot(w http.ResponseWriter, _ *http.Request) {
	body, err := h.feedBuilder.NavigationFeed(
		h.feedBuilder.Title(), "Browse the catalog", "/opds", "",
		h.catalogUpdated(), h.feedBuilder.RootEntries())
	writeFeed(w, "application/atom+xml", body, err)
}

// OPDSEntities — GET /opds/{коллекция}: навигационный фид сущностей.
func (h *APIHandler) OPDSEntities(kind model.EntityKind, segment string) http.HandlerFunc {
	title := opdsKindTitles[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		page, maxItems, err := feedPageParams(r, feed.DefaultOPDSItems)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}

		pages := catalog.Paginate(h.store.Entities(kind), maxItems)
		entities, ok := feedPage(pages, page)
		if !ok {
			apierrors.ValidationError(w, catalog.ErrPageOutOfRange.Error())
			return
		}

		entries := make([]feed.NavEntry, 0, len(entities))
		for _, entity := range entities {
			entries = append(entries, feed.NavEntry{
				Title:   entity.Name,
				ID:      fmt.Sprintf("%s:%d", kind, entity.ID),
				Href:    fmt.Sprintf("/opds/%s/%d", segment, entity.ID),
				Content: fmt.Sprintf("%d book(s)", h.store.CountBooksByEntity(kind, entity.ID)),
			})
		}

		selfURL := fmt.Sprintf("/opds/%s?page_number=%d", segment, page)
		nextURL := feedNextURL(fmt.Sprintf("/opds/%s", segment), page, len(pages))

		body, err := h.feedBuilder.NavigationFeed(
			fmt.Sprintf("%s (%d/%d)", title, page, len(pages)),
			"Browse the catalog by "+string(kind),
			selfURL, nextURL, h.catalogUpdated(), entries)
		writeFeed(w, "application/atom+xml", body, err)
	}
}

// OPDSBooksByEntity — GET /opds/{коллекция}/{id}: acquisition-фид книг сущности.
func (h *APIHandler) OPDSBooksByEntity(kind model.EntityKind, segment, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, param)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		page, maxItems, err := feedPageParams(r, feed.DefaultOPDSItems)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}

		entity := h.store.EntityByID(kind, id)
		if entity == nil {
			apierrors.NotFound(w, fmt.Sprintf("%s %d not found", kind, id))
			return
		}

		allBooks, _ := h.store.BooksByEntity(kind, id)
		pages := catalog.Paginate(allBooks, maxItems)
		books, ok := feedPage(pages, page)
		if !ok {
			apierrors.ValidationError(w, catalog.ErrPageOutOfRange.Error())
			return
		}

		base := fmt.Sprintf("/opds/%s/%d", segment, id)
		body, err := h.feedBuilder.AcquisitionFeed(
			fmt.Sprintf("%s (%d/%d)", entity.Name, page, len(pages)),
			fmt.Sprintf("Books: %s", entity.Name),
			fmt.Sprintf("%s?page_number=%d", base, page),
			feedNextURL(base, page, len(pages)),
			h.catalogUpdated(), books)
		writeFeed(w, "application/atom+xml", body, err)
	}
}

// OPDSBook — GET /opds/books/{book_id}: acquisition-фид одной книги.
func (h *APIHandler) OPDSBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "book_id")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	book := h.store.BookByID(id)
	if book == nil {
		apierrors.NotFound(w, fmt.Sprintf("book %d not found", id))
		return
	}

	title := feed.BookTitle(book)
	body, err := h.feedBuilder.AcquisitionFeed(
		title, title,
		fmt.Sprintf("/opds/books/%d", id),
		"", h.catalogUpdated(), []*model.Book{book})
	writeFeed(w, "application/atom+xml", body, err)
}

// OPDSRecentBooks — GET /opds/recent-books: новые книги.
func (h *APIHandler) OPDSRecentBooks(w http.ResponseWriter, r *http.Request) {
	h.opdsBooksFeed(w, r, "recent-books", "Recent books", true)
}

// OPDSOldBooks — GET /opds/old-books: старые книги.
func (h *APIHandler) OPDSOldBooks(w http.ResponseWriter, r *http.Request) {
	h.opdsBooksFeed(w, r, "old-books", "Old books", false)
}

func (h *APIHandler) opdsBooksFeed(w http.ResponseWriter, r *http.Request, segment, title string, newestFirst bool) {
	page, maxItems, err := feedPageParams(r, feed.DefaultOPDSItems)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	pages := catalog.Paginate(h.booksByDate(newestFirst), maxItems)
	books, ok := feedPage(pages, page)
	if !ok {
		apierrors.ValidationError(w, catalog.ErrPageOutOfRange.Error())
		return
	}

	base := "/opds/" + segment
	body, err := h.feedBuilder.AcquisitionFeed(
		fmt.Sprintf("%s (%d/%d)", title, page, len(pages)),
		title,
		fmt.Sprintf("%s?page_number=%d", base, page),
		feedNextURL(base, page, len(pages)),
		h.catalogUpdated(), books)
	writeFeed(w, "application/atom+xml", body, err)
}

// OPDSSearchBooks — GET /opds/search/books: результаты поиска в OPDS.
func (h *APIHandler) OPDSSearchBooks(w http.ResponseWriter, r *http.Request) {
	query, searchType := searchParams(r)
	page, maxItems, err := feedPageParams(r, feed.DefaultOPDSItems)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := service.ValidateSearch(query, searchType); err != nil {
		apierrors.FromService(w, err)
		return
	}

	var results []*model.Book
	if searchType == service.SearchSlow {
		results = h.store.SlowSearchBooks(query)
	} else {
		results = h.store.FastSearchBooks(query)
	}
	if len(results) == 0 {
		apierrors.NotFound(w, "no books found")
		return
	}

	pages := catalog.Paginate(results, maxItems)
	books, ok := feedPage(pages, page)
	if !ok {
		apierrors.ValidationError(w, catalog.ErrPageOutOfRange.Error())
		return
	}

	body, err := h.feedBuilder.AcquisitionFeed(
		fmt.Sprintf("Search results (%d/%d)", page, len(pages)),
		"Search results",
		fmt.Sprintf("/opds/search/books?query_name=%s&page_number=%d", url.QueryEscape(query), page),
		"", h.catalogUpdated(), books)
	writeFeed(w, "application/atom+xml", body, err)
}

// feedPage возвращает страницу фида. Пустой каталог с page=0 — пустая
// страница, выход за пределы — false.
func feedPage[T any](pages [][]T, page int) ([]T, bool) {
	if len(pages) == 0 {
		if page == 0 {
			return nil, true
		}
		return nil, false
	}
	if page >= len(pages) {
		return nil, false
	}
	return pages[page], true
}

// feedNextURL собирает ссылку на следующую страницу фида.
// Пустая строка — следующей страницы нет.
func feedNextURL(base string, page, totalPages int) string {
	if page+1 >= totalPages {
		return ""
	}
	return fmt.Sprintf("%s?page_number=%d", base, page+1)
}
