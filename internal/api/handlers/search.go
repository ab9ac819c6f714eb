// search.go — обработчики поисковых endpoints /search/*.
// Параметры: query_name (3..270 символов), search_type (fast|slow),
// пагинация как у списочных endpoints.
package handlers

import (
	"net/http"

	apierrors "github.com/inkwell-books/inkwell/internal/api/errors"
	"github.com/inkwell-books/inkwell/internal/domain/model"
	"github.com/inkwell-books/inkwell/internal/service"
)

// SearchBooks — GET /search/books.
func (h *APIHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	query, searchType := searchParams(r)
	page, maxItems, err := pageParams(r, service.DefaultPageItems)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	env, err := h.catalogService.SearchBooks(query, searchType, page, maxItems)
	respond(w, env, err)
}

// SearchEntities — GET /search/{коллекция} для справочной коллекции.
func (h *APIHandler) SearchEntities(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, searchType := searchParams(r)
		page, maxItems, err := pageParams(r, service.DefaultPageItems)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		env, err := h.catalogService.SearchEntities(kind, query, searchType, page, maxItems)
		respond(w, env, err)
	}
}
