package dataset

// Page is a bounded window of records plus pagination metadata. Pages are
// replaced wholesale by the next query response, never mutated.
type Page struct {
	Items      []Record
	TotalCount int
	PageIndex  int // 1-based
	PageSize   int
	TotalPages int
}

// PageRequest carries the parameters of a dataset query.
type PageRequest struct {
	PageIndex int
	PageSize  int
	Search    string
}

// Validate rejects page requests that must never reach the network.
func (r PageRequest) Validate() error {
	if r.PageIndex < 1 {
		return Validationf("page %d out of range", r.PageIndex)
	}
	if r.PageSize < 1 {
		return Validationf("page size must be at least 1, got %d", r.PageSize)
	}
	return nil
}

// TotalPages returns the number of pages needed to hold total records.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ExpectedLen returns the number of records the given page should hold.
// Every page but the last is exactly size long.
func ExpectedLen(pageIndex, size, total int) int {
	if pageIndex < 1 || size < 1 || total <= 0 {
		return 0
	}
	start := (pageIndex - 1) * size
	if start >= total {
		return 0
	}
	return min(size, total-start)
}

// Empty reports whether the page holds no records.
func (p Page) Empty() bool {
	return len(p.Items) == 0
}

// HasNext reports whether a page follows this one.
func (p Page) HasNext() bool {
	return p.PageIndex < p.TotalPages
}

// HasPrev reports whether a page precedes this one.
func (p Page) HasPrev() bool {
	return p.PageIndex > 1
}

// Offset returns the zero-based position of the first item across the dataset.
func (p Page) Offset() int {
	if p.PageIndex < 1 {
		return 0
	}
	return (p.PageIndex - 1) * p.PageSize
}
