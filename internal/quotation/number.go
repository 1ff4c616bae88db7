package quotation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// NewNumber generates a human-quotable document number: the letter Q, the
// date, and a three-digit random suffix, e.g. Q20260830042. Collisions on the
// same day are possible; the caller retries against the unique index.
func NewNumber(at time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("Q%s%03d", at.Format("20060102"), suffix)
}
