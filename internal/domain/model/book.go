// book.go — книга и справочные сущности каталога.
package model

// EntityKind — вид справочной сущности каталога.
type EntityKind string

const (
	KindAuthor    EntityKind = "author"
	KindArtist    EntityKind = "artist"
	KindNarrator  EntityKind = "narrator"
	KindPublisher EntityKind = "publisher"
	KindCategory  EntityKind = "category"
	KindType      EntityKind = "type"
	KindYear      EntityKind = "year"
)

// Entity — справочная сущность (автор, категория, издательство и т.д.).
type Entity struct {
	// ID — числовой идентификатор сущности
	ID int `json:"id"`
	// Name — отображаемое имя (для Year — сам год строкой)
	Name string `json:"name"`
}

// Book — книга каталога со ссылками на сущности и медиа.
// Все ссылки опциональны, кроме Documents (минимум один документ).
type Book struct {
	// ID — числовой идентификатор книги
	ID int `json:"id"`
	// MessageID — идентификатор исходного сообщения на платформе обмена
	MessageID int64 `json:"message_id"`
	// Title — название книги (nil — без названия)
	Title *string `json:"title"`
	// Genre — жанр, свободный текст
	Genre *string `json:"genre,omitempty"`
	// Duration — длительность аудиокниги в секундах
	Duration *int64 `json:"duration,omitempty"`
	// TotalSize — суммарный размер всех документов в байтах
	TotalSize *int64 `json:"total_size,omitempty"`
	// Volumes — количество томов (комиксы, манга)
	Volumes *int `json:"volumes,omitempty"`
	// Chapters — количество глав
	Chapters *int `json:"chapters,omitempty"`
	// Date — unix-время добавления книги
	Date int64 `json:"date"`

	Author    *Entity `json:"author"`
	Artist    *Entity `json:"artist"`
	Narrator  *Entity `json:"narrator"`
	Publisher *Entity `json:"publisher"`
	Category  *Entity `json:"category"`
	Type      *Entity `json:"type"`
	Year      *Entity `json:"year"`

	// Cover — обложка книги (nil — без обложки)
	Cover *MediaRecord `json:"cover"`
	// Documents — файлы книги в порядке добавления
	Documents []*MediaRecord `json:"documents"`
}

// EntityRef возвращает ссылку книги на сущность указанного вида.
func (b *Book) EntityRef(kind EntityKind) *Entity {
	switch kind {
	case KindAuthor:
		return b.Author
	case KindArtist:
		return b.Artist
	case KindNarrator:
		return b.Narrator
	case KindPublisher:
		return b.Publisher
	case KindCategory:
		return b.Category
	case KindType:
		return b.Type
	case KindYear:
		return b.Year
	}
	return nil
}
