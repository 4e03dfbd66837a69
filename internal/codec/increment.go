package codec

import (
	"math/big"
	"strings"
)

// DefaultInvoiceNumber is used when a prior document carried no invoice number.
const DefaultInvoiceNumber = "INV-1"

// NextInvoiceNumber increments the trailing digit run of number, keeping any
// prefix and the run's zero-padded width ("INV-00209" → "INV-00210"). The width
// only grows when the carry needs another digit ("INV-999" → "INV-1000").
// Without trailing digits "-1" is appended.
func NextInvoiceNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return DefaultInvoiceNumber
	}

	start := len(number)
	for start > 0 && number[start-1] >= '0' && number[start-1] <= '9' {
		start--
	}
	if start == len(number) {
		return number + "-1"
	}

	digits := number[start:]
	n, _ := new(big.Int).SetString(digits, 10)
	next := n.Add(n, big.NewInt(1)).String()
	if pad := len(digits) - len(next); pad > 0 {
		next = strings.Repeat("0", pad) + next
	}
	return number[:start] + next
}
