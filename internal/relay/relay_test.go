package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// trackedReader — источник, отслеживающий закрытие.
type trackedReader struct {
	io.Reader
	closed   int
	closeErr error
}

func (r *trackedReader) Close() error {
	r.closed++
	return r.closeErr
}

// TestCopy_FullTransfer проверяет полную передачу содержимого
// и закрытие источника.
func TestCopy_FullTransfer(t *testing.T) {
	content := strings.Repeat("x", 3*chunkSize+17)
	src := &trackedReader{Reader: strings.NewReader(content)}
	rec := httptest.NewRecorder()

	r := New(testLogger())
	n, err := r.Copy(context.Background(), rec, NewStream(src))
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("передано байт = %d, ожидалось %d", n, len(content))
	}
	if rec.Body.String() != content {
		t.Errorf("тело ответа не совпадает с источником")
	}
	if src.closed != 1 {
		t.Errorf("источник закрыт %d раз, ожидался 1", src.closed)
	}
}

// TestCopy_CancelledContext проверяет, что отмена контекста прекращает
// передачу и освобождает источник.
func TestCopy_CancelledContext(t *testing.T) {
	src := &trackedReader{Reader: strings.NewReader("данные")}
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(testLogger())
	_, err := r.Copy(ctx, rec, NewStream(src))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, ожидался context.Canceled", err)
	}
	if src.closed != 1 {
		t.Errorf("источник закрыт %d раз, ожидался 1", src.closed)
	}
}

// TestCopy_ReadError проверяет возврат ошибки чтения источника.
func TestCopy_ReadError(t *testing.T) {
	readErr := errors.New("источник оборвался")
	src := &trackedReader{Reader: io.MultiReader(
		bytes.NewReader([]byte("начало")),
		&failingReader{err: readErr},
	)}
	rec := httptest.NewRecorder()

	r := New(testLogger())
	_, err := r.Copy(context.Background(), rec, NewStream(src))
	if !errors.Is(err, readErr) {
		t.Errorf("err = %v, ожидалась обёрнутая ошибка чтения", err)
	}
	if src.closed != 1 {
		t.Errorf("источник закрыт %d раз, ожидался 1", src.closed)
	}
}

// failingReader — Reader, всегда возвращающий ошибку.
type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

// TestStream_CloseOnce проверяет, что повторные Close возвращают
// результат первого закрытия и не закрывают источник повторно.
func TestStream_CloseOnce(t *testing.T) {
	closeErr := errors.New("ошибка закрытия")
	src := &trackedReader{Reader: strings.NewReader(""), closeErr: closeErr}

	s := NewStream(src)
	if err := s.Close(); !errors.Is(err, closeErr) {
		t.Errorf("первый Close() = %v, ожидалась ошибка закрытия", err)
	}
	if err := s.Close(); !errors.Is(err, closeErr) {
		t.Errorf("повторный Close() = %v, ожидался результат первого закрытия", err)
	}
	if src.closed != 1 {
		t.Errorf("источник закрыт %d раз, ожидался 1", src.closed)
	}
}

// TestCopy_EmptySource проверяет передачу пустого источника.
func TestCopy_EmptySource(t *testing.T) {
	src := &trackedReader{Reader: strings.NewReader("")}
	rec := httptest.NewRecorder()

	r := New(testLogger())
	n, err := r.Copy(context.Background(), rec, NewStream(src))
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if n != 0 {
		t.Errorf("передано байт = %d, ожидался 0", n)
	}
}
