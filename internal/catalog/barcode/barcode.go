// Package barcode builds and parses the scannable payloads that identify
// products during quotation entry. The payload is a self-describing JSON
// record, not a compact symbology: a scan must be enough to redisplay the
// product without a database round trip.
package barcode

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// Payload is the record encoded into a QR/barcode label.
type Payload struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Manufacturer   string `json:"manufacturer"`
	MRP            string `json:"mrp"`
	Wholesale      string `json:"wholesale"`
	AdditionalData string `json:"additionalData,omitempty"`
}

// GenerateSKU derives a stock-keeping unit identifier:
// 2-letter category code, 3-letter manufacturer code, YYMMDD, 3-digit random.
// Codes come from stripping non-alphanumerics, uppercasing and truncating, so
// differently named categories sharing a prefix may collide; uniqueness is by
// convention, not guaranteed.
func GenerateSKU(category, name, manufacturer string) string {
	_ = name // carried for call symmetry with payload generation
	return generateSKUAt(category, manufacturer, time.Now())
}

func generateSKUAt(category, manufacturer string, now time.Time) string {
	cat := codePrefix(category, 2)
	mfr := codePrefix(manufacturer, 3)
	return fmt.Sprintf("%s%s%s%03d", cat, mfr, now.Format("060102"), randomSuffix())
}

func codePrefix(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= n {
				break
			}
		}
	}
	return b.String()
}

func randomSuffix() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return time.Now().UnixNano() % 1000
	}
	return n.Int64()
}

// Generate builds the label payload for a product. Prices are fixed to two
// decimal places at encode time.
func Generate(sku, name, category, manufacturer string, mrp, wholesale decimal.Decimal, additionalData string) Payload {
	return Payload{
		SKU:            sku,
		Name:           name,
		Category:       category,
		Manufacturer:   manufacturer,
		MRP:            mrp.StringFixed(2),
		Wholesale:      wholesale.StringFixed(2),
		AdditionalData: additionalData,
	}
}

// Encode renders the payload as the string handed to the QR encoder.
func Encode(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("barcode: encode: %w", err)
	}
	return string(data), nil
}

// Parse decodes a scanned payload. Scanning hardware delivers garbled or
// partial reads, so malformed input fails soft with a ParseError.
func Parse(raw string) (Payload, error) {
	var p Payload
	if strings.TrimSpace(raw) == "" {
		return Payload{}, &shared.ParseError{Reason: "empty payload"}
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, &shared.ParseError{Reason: err.Error()}
	}
	if p.SKU == "" || p.Name == "" || p.MRP == "" {
		return Payload{}, &shared.ParseError{Reason: "payload missing sku, name or mrp"}
	}
	return p, nil
}
