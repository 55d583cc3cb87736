package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber generates an ORD-<millis>-<9 char suffix> order number. The
// suffix makes collisions negligible, but the orders table still carries a
// unique index and surfaces a retryable conflict if one ever happens.
func NewOrderNumber() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = numberAlphabet[rand.IntN(len(numberAlphabet))]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}
