// fold.go — нормализация строк для fast-поиска.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer убирает диакритические знаки: NFD-декомпозиция,
// удаление несамостоятельных знаков (Mn), обратная композиция.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold приводит строку к форме для fast-поиска: без диакритики,
// в нижнем регистре. "Memórias Póstumas" → "memorias postumas".
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		// Transformer не возвращает ошибок на корректном UTF-8;
		// на некорректном вводе ищем по исходной строке.
		folded = s
	}
	return strings.ToLower(folded)
}
