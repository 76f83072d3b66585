// Package paginate slices ordered collections into fixed-size pages.
package paginate

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is one page of a collection with navigation metadata
type Page[T any] struct {
	Items       []T  `json:"items"`
	PageNumber  int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Normalize clamps a requested page size and 1-indexed page number into range
func Normalize(pageSize, pageNumber int) (int, int) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	return pageSize, pageNumber
}

// TotalPages is ceil(count/pageSize), and 0 for an empty collection
func TotalPages(count, pageSize int) int {
	pageSize, _ = Normalize(pageSize, 1)
	if count <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// Paginate returns records[(page-1)*size : page*size] clamped to the
// available range. Pages past the end are empty, never an error.
func Paginate[T any](records []T, pageSize, pageNumber int) []T {
	pageSize, pageNumber = Normalize(pageSize, pageNumber)

	// compare page indexes first; (pageNumber-1)*pageSize overflows for huge pages
	if len(records) == 0 || pageNumber-1 > (len(records)-1)/pageSize {
		return []T{}
	}
	start := (pageNumber - 1) * pageSize
	end := min(start+pageSize, len(records))

	out := make([]T, end-start)
	copy(out, records[start:end])
	return out
}

// PageOf paginates records and fills in the navigation metadata. A page
// number past the end is reported as the first empty page after it.
func PageOf[T any](records []T, pageSize, pageNumber int) Page[T] {
	pageSize, pageNumber = Normalize(pageSize, pageNumber)
	total := TotalPages(len(records), pageSize)
	pageNumber = min(pageNumber, total+1)
	return Page[T]{
		Items:       Paginate(records, pageSize, pageNumber),
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalItems:  len(records),
		TotalPages:  total,
		HasNext:     pageNumber < total,
		HasPrevious: pageNumber > 1,
	}
}
