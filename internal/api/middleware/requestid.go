// requestid.go — middleware идентификатора запроса.
// Принимает X-Request-Id от клиента или генерирует UUID, кладёт значение
// в контекст и заголовок ответа. Используется логирующим middleware.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// requestIDKey — ключ контекста для идентификатора запроса.
const requestIDKey contextKey = "request_id"

// RequestID возвращает middleware, снабжающий каждый запрос
// идентификатором для сквозной трассировки в логах.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set("X-Request-Id", id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса из контекста.
// Пустая строка — идентификатор не установлен.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
