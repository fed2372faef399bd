package invoice

import "fmt"

// NumberPrefix starts every automatically assigned invoice number.
const NumberPrefix = "INV-"

// MaxNumberLength bounds caller-chosen invoice numbers.
const MaxNumberLength = 50

// FormatNumber renders a sequence value, e.g. 7 -> "INV-0007".
func FormatNumber(seq int64) string {
	return fmt.Sprintf("%s%04d", NumberPrefix, seq)
}
