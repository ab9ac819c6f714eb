// media.go — обработчики доставки содержимого.
// GET /download/{document_id} — файл книги (attachment),
// GET /view/{cover_id} — обложка (inline).
//
// Ошибки доставки пишутся сервисом ДО отправки заголовков; после
// начала потоковой передачи ответ клиенту уже не изменить.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/inkwell-books/inkwell/internal/api/errors"
)

// DownloadDocument — GET /download/{document_id}.
func (h *APIHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "document_id")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := h.mediaService.ServeDocument(r.Context(), w, id); err != nil {
		h.logger.Debug("Доставка документа завершилась ошибкой",
			slog.Int("document_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.FromService(w, err)
	}
}

// ViewCover — GET /view/{cover_id}.
func (h *APIHandler) ViewCover(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cover_id")
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := h.mediaService.ServeCover(r.Context(), w, id); err != nil {
		h.logger.Debug("Доставка обложки завершилась ошибкой",
			slog.Int("cover_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.FromService(w, err)
	}
}
