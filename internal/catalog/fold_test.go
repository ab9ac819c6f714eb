package catalog

import "testing"

// TestFold проверяет нормализацию строк для fast-поиска.
func TestFold(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Memórias Póstumas", "memorias postumas"},
		{"CAFÉ", "cafe"},
		{"naïve", "naive"},
		{"Мастер и Маргарита", "мастер и маргарита"},
		// й = и + несамостоятельный breve: сворачивается в 'и'
		{"Чистый", "чистыи"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Errorf("Fold(%q) = %q, ожидалось %q", tc.in, got, tc.want)
		}
	}
}
