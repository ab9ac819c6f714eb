// Пакет errors — конструкторы стандартных ошибок API Inkwell.
// Единый формат: {"error": "<описание>", "code": "<машинный код>"}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт имени со stdlib осознанный, пакет не импортируется вместе с ним

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/inkwell-books/inkwell/internal/service"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: message,
		Code:  code,
	})
}

// FromService транслирует ошибку сервисного слоя в HTTP-ответ.
// *service.MediaError переносит статус, код и Retry-After; всё
// остальное — 500 без деталей внутренней ошибки.
func FromService(w http.ResponseWriter, err error) {
	var mediaErr *service.MediaError
	if errors.As(err, &mediaErr) {
		if mediaErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(mediaErr.RetryAfter))
		}
		WriteError(w, mediaErr.StatusCode, mediaErr.Code, mediaErr.Message)
		return
	}
	WriteError(w, http.StatusInternalServerError, service.CodeInternal, "internal server error")
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, service.CodeValidation, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, service.CodeNotFound, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, service.CodeInternal, message)
}
