package memory

import (
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
)

// applyPagination slices a result set according to any Pagination spec.
// The gorm implementations get this for free from Limit/Offset.
func applyPagination[T any](items []T, specs []specification.Specification) []T {
	for _, spec := range specs {
		p, ok := spec.(specification.Pagination)
		if !ok {
			continue
		}
		if p.Offset >= len(items) {
			return nil
		}
		items = items[p.Offset:]
		if p.Limit > 0 && p.Limit < len(items) {
			items = items[:p.Limit]
		}
	}
	return items
}
