// bytes.go — человекочитаемое представление размеров.
package feed

import "fmt"

const (
	kilobyte = 1 << 10
	megabyte = 1 << 20
	gigabyte = 1 << 30
	terabyte = 1 << 40
)

// ToHuman форматирует размер в байтах в читаемый вид (KB/MB/GB/TB,
// два знака после запятой).
func ToHuman(size int64) string {
	switch {
	case size < kilobyte:
		if size == 1 {
			return "1 Byte"
		}
		return fmt.Sprintf("%d Bytes", size)
	case size < megabyte:
		return fmt.Sprintf("%.2f KB", float64(size)/kilobyte)
	case size < gigabyte:
		return fmt.Sprintf("%.2f MB", float64(size)/megabyte)
	case size < terabyte:
		return fmt.Sprintf("%.2f GB", float64(size)/gigabyte)
	default:
		return fmt.Sprintf("%.2f TB", float64(size)/terabyte)
	}
}
