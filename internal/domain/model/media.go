// Пакет model — доменные модели Inkwell.
// MediaRecord — единица скачиваемого контента (обложка или документ).
package model

import "fmt"

// MediaKind — вид медиа-записи.
type MediaKind string

const (
	// KindCover — обложка книги (отдаётся inline через /view).
	KindCover MediaKind = "cover"
	// KindDocument — файл книги (отдаётся attachment через /download).
	KindDocument MediaKind = "document"
)

// Resolution — размеры изображения обложки (для RSS-фида).
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MediaRecord — метаданные одного скачиваемого файла.
// Создаётся один раз при загрузке каталога и неизменяем до завершения процесса.
// Инвариант: задан хотя бы один из источников — MirrorID или MessageID.
type MediaRecord struct {
	// ID — числовой идентификатор медиа-записи
	ID int `json:"id"`
	// BookID — ссылка на книгу-владельца (только для lookup)
	BookID int `json:"book_id"`
	// MimeType — MIME-тип содержимого
	MimeType string `json:"mime_type"`
	// FileSize — размер содержимого в байтах
	FileSize int64 `json:"file_size"`
	// FileExtension — расширение файла без точки (pdf, epub, jpg, ...)
	FileExtension string `json:"file_extension"`
	// Date — unix-время добавления записи в каталог
	Date int64 `json:"date"`
	// MirrorID — идентификатор файла на облачном зеркале ("" — зеркала нет)
	MirrorID string `json:"mirror_id,omitempty"`
	// MessageID — идентификатор сообщения на платформе обмена (0 — сообщения нет)
	MessageID int64 `json:"message_id,omitempty"`
	// Resolution — размеры изображения (только для обложек)
	Resolution *Resolution `json:"resolution,omitempty"`
}

// Validate проверяет инвариант источников: хотя бы один из
// MirrorID / MessageID должен быть задан.
func (m *MediaRecord) Validate() error {
	if m.MirrorID == "" && m.MessageID == 0 {
		return fmt.Errorf("медиа-запись %d: не задан ни mirror_id, ни message_id", m.ID)
	}
	return nil
}

// HasMirror сообщает, доступно ли облачное зеркало для записи.
func (m *MediaRecord) HasMirror() bool {
	return m.MirrorID != ""
}
