// Package pagination normalizes page sizes and encodes opaque page tokens for
// list RPCs.
package pagination

import "fmt"

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// OrderByConfig configures order_by validation.
type OrderByConfig struct {
	Default string
	Allowed []string
}

// ClampPageSize applies cfg.Default to non-positive sizes and caps the result
// at cfg.Max. The result is never below 1.
func ClampPageSize(value int32, cfg PageSizeConfig) int {
	size := int(value)
	if size <= 0 {
		size = cfg.Default
	}
	if cfg.Max > 0 && size > cfg.Max {
		size = cfg.Max
	}
	return max(size, 1)
}

// NormalizeOrderBy returns orderBy when allowed, cfg.Default when empty.
func NormalizeOrderBy(orderBy string, cfg OrderByConfig) (string, error) {
	if orderBy == "" {
		return cfg.Default, nil
	}
	for _, allowed := range cfg.Allowed {
		if orderBy == allowed {
			return orderBy, nil
		}
	}
	return "", fmt.Errorf("invalid order_by: %s", orderBy)
}
