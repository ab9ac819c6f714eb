// pagination.go — нарезка списков на страницы и envelope пагинации.
package catalog

import "errors"

// ErrPageOutOfRange — запрошенная страница за пределами доступных.
var ErrPageOutOfRange = errors.New("page_number value is out of range")

// Pagination — блок навигации по страницам в ответе списочных endpoints.
type Pagination struct {
	TotalPages     int  `json:"total_pages"`
	RemainingPages int  `json:"remaining_pages"`
	PreviousPage   *int `json:"previous_page"`
	CurrentPage    int  `json:"current_page"`
	NextPage       *int `json:"next_page"`
}

// Results — блок результатов текущей страницы.
type Results struct {
	TotalResults   int `json:"total_results"`
	MaxResults     int `json:"max_results"`
	DisplayResults int `json:"display_results"`
	Items          any `json:"items"`
}

// Envelope — полный ответ списочного endpoint.
type Envelope struct {
	Pagination Pagination `json:"pagination"`
	Results    Results    `json:"results"`
}

// Paginate нарезает items на страницы по pageSize элементов.
// Последняя страница может быть короче. Пустой вход даёт ноль страниц.
func Paginate[T any](items []T, pageSize int) [][]T {
	if pageSize <= 0 {
		pageSize = 1
	}
	pages := make([][]T, 0, (len(items)+pageSize-1)/pageSize)
	for start := 0; start < len(items); start += pageSize {
		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}
		pages = append(pages, items[start:end])
	}
	return pages
}

// BuildEnvelope нарезает items на страницы и собирает envelope для
// страницы page. Возвращает ErrPageOutOfRange, если страница за
// пределами доступных. Пустой список с page=0 даёт пустой envelope.
func BuildEnvelope[T any](items []T, page, pageSize int) (*Envelope, error) {
	pages := Paginate(items, pageSize)
	totalPages := len(pages)

	if totalPages == 0 {
		if page != 0 {
			return nil, ErrPageOutOfRange
		}
		return &Envelope{
			Pagination: Pagination{CurrentPage: 0},
			Results:    Results{MaxResults: pageSize, Items: []T{}},
		}, nil
	}

	if page < 0 || page >= totalPages {
		return nil, ErrPageOutOfRange
	}

	var previous, next *int
	if page-1 >= 0 {
		p := page - 1
		previous = &p
	}
	if page+1 < totalPages {
		n := page + 1
		next = &n
	}

	return &Envelope{
		Pagination: Pagination{
			TotalPages:     totalPages,
			RemainingPages: totalPages - 1 - page,
			PreviousPage:   previous,
			CurrentPage:    page,
			NextPage:       next,
		},
		Results: Results{
			TotalResults:   len(items),
			MaxResults:     pageSize,
			DisplayResults: len(pages[page]),
			Items:          pages[page],
		},
	}, nil
}
