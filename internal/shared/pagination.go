package shared

// Listing page size bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// ClampLimit normalizes a requested listing size to the allowed window.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}
