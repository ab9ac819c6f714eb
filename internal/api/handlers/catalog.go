// catalog.go — обработчики списочных endpoints каталога.
// /books, /covers, /documents и справочные коллекции (/authors,
// /categories, ...). Все ответы — envelope пагинации или карточка.
package handlers

import (
	"net/http"

	apierrors "github.com/inkwell-books/inkwell/internal/api/errors"
	"github.com/inkwell-books/inkwell/internal/domain/model"
	"github.com/inkwell-books/inkwell/internal/service"
)

// ListBooks — GET /books.
func (h *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page, maxItems, err := pageParams(r, service.DefaultPageItems)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	env, err := h.catalogService.ListBooks(page, maxItems)
	respond(w, env, err)
}

// GetBook — GET /books/{book_id}.
func (h *APIHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "book_id")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	book, err := h.catalogService.BookByID(id)
	respond(w, book, err)
}

// ListEntities — GET /{коллекция} для справочной коллекции
// (авторы, категории, издательства и т.д.).
func (h *APIHandler) ListEntities(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, maxItems, err := pageParams(r, service.DefaultPageItems)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		env, err := h.catalogService.ListEntities(kind, page, maxItems)
		respond(w, env, err)
	}
}

// GetBooksByEntity — GET /{коллекция}/{id}: страница книг,
// привязанных к сущности.
func (h *APIHandler) GetBooksByEntity(kind model.EntityKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, param)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		page, maxItems, err := pageParams(r, service.DefaultPageItems)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		env, err := h.catalogService.BooksByEntity(kind, id, page, maxItems)
		respond(w, env, err)
	}
}

// ListCovers — GET /covers.
func (h *APIHandler) ListCovers(w http.ResponseWriter, r *http.Request) {
	page, maxItems, err := pageParams(r, service.DefaultPageItems)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	env, err := h.catalogService.ListCovers(page, maxItems)
	respond(w, env, err)
}

// GetCover — GET /covers/{cover_id}: метаданные обложки.
func (h *APIHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cover_id")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	record, err := h.catalogService.CoverByID(id)
	respond(w, record, err)
}

// ListDocuments — GET /documents.
func (h *APIHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	page, maxItems, err := pageParams(r, service.DefaultPageItems)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	env, err := h.catalogService.ListDocuments(page, maxItems)
	respond(w, env, err)
}

// GetDocument — GET /documents/{document_id}: метаданные документа.
func (h *APIHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "document_id")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	record, err := h.catalogService.DocumentByID(id)
	respond(w, record, err)
}
