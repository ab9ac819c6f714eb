// errors.go — типизированные ошибки сервисного слоя.
// API-слой транслирует их в HTTP-статусы и JSON-ответы без
// разбора текста: статус, машинный код и Retry-After несёт сама ошибка.
package service

import "fmt"

// Машинные коды ошибок.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeThrottled  = "THROTTLED"
	CodeInternal   = "INTERNAL_ERROR"
)

// MediaError — ошибка обработки запроса с HTTP-семантикой.
type MediaError struct {
	// StatusCode — HTTP-статус для ответа клиенту
	StatusCode int
	// Code — машинный код ошибки
	Code string
	// Message — человекочитаемое описание
	Message string
	// RetryAfter — секунды до следующей допустимой попытки (для THROTTLED)
	RetryAfter int
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFoundError создаёт ошибку 404 для отсутствующей сущности.
func NotFoundError(message string) *MediaError {
	return &MediaError{
		StatusCode: 404,
		Code:       CodeNotFound,
		Message:    message,
	}
}

// ValidationError создаёт ошибку 400 для некорректных параметров.
func ValidationError(message string) *MediaError {
	return &MediaError{
		StatusCode: 400,
		Code:       CodeValidation,
		Message:    message,
	}
}

// ThrottledError создаёт ошибку 503 с временем ожидания.
func ThrottledError(retryAfter int) *MediaError {
	return &MediaError{
		StatusCode: 503,
		Code:       CodeThrottled,
		Message:    fmt.Sprintf("too many requests, retry after %d seconds", retryAfter),
		RetryAfter: retryAfter,
	}
}

// BridgeThrottledError создаёт ошибку 503 для throttle со стороны
// платформы обмена (формулировка отличается от gate cool-down).
func BridgeThrottledError(retryAfter int) *MediaError {
	return &MediaError{
		StatusCode: 503,
		Code:       CodeThrottled,
		Message:    "we don't have enough resources to serve this file at this moment",
		RetryAfter: retryAfter,
	}
}

// InternalError создаёт ошибку 500.
func InternalError(message string) *MediaError {
	return &MediaError{
		StatusCode: 500,
		Code:       CodeInternal,
		Message:    message,
	}
}
