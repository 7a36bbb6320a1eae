package core

import "fmt"

// Page is one page of a paginated backend result.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// Valid checks the structural invariants of a page.
func (p Page[T]) Valid() error {
	if p.Size > 0 && len(p.Content) > p.Size {
		return fmt.Errorf("page holds %d items, size is %d", len(p.Content), p.Size)
	}
	if p.TotalPages > 0 && (p.Number < 0 || p.Number >= p.TotalPages) {
		return fmt.Errorf("page number %d outside [0, %d)", p.Number, p.TotalPages)
	}
	return nil
}
