// Пакет openapi — встроенный OpenAPI-контракт API Inkwell.
// Контракт валидируется при старте процесса: сломанный контракт —
// ошибка инициализации, а не сюрприз для клиентов на /openapi.json.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed openapi.yaml
var specYAML []byte

// Load разбирает и валидирует встроенный контракт.
// Возвращает контракт, сериализованный в JSON, для отдачи на /openapi.json.
func Load(ctx context.Context) ([]byte, error) {
	doc, err := parse(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("сериализация OpenAPI контракта: %w", err)
	}
	return data, nil
}
