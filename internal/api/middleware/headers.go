// headers.go — middleware стандартных заголовков ответа.
// Публичный read-only API: открытый CORS, часовое кэширование,
// запрет индексации и сниффинга типов.
package middleware

import "net/http"

// DefaultHeaders возвращает middleware, выставляющий стандартные
// заголовки на каждый ответ до передачи запроса обработчику.
func DefaultHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Cache-Control", "public, max-age=3600")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("X-Robots-Tag", "noindex, nofollow, noarchive")
			next.ServeHTTP(w, r)
		})
	}
}
