// Package paginate splits ordered slices into fixed-size pages for
// display. Pages share the backing array of the input; nothing is
// copied.
package paginate

// Pages splits items into consecutive pages of at most pageSize
// elements. Only the last page may be short. A pageSize below 1 yields
// nil, as does an empty input.
func Pages[T any](items []T, pageSize int) [][]T {
	if pageSize < 1 || len(items) == 0 {
		return nil
	}
	pages := make([][]T, 0, (len(items)+pageSize-1)/pageSize)
	for start := 0; start < len(items); start += pageSize {
		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}
		pages = append(pages, items[start:end])
	}
	return pages
}

// Page returns the n-th page (zero-based) of items, or nil when the
// page is out of range.
func Page[T any](items []T, pageSize, n int) []T {
	if pageSize < 1 || n < 0 {
		return nil
	}
	start := n * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Count returns the number of pages items splits into.
func Count[T any](items []T, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return (len(items) + pageSize - 1) / pageSize
}
