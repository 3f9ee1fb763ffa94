package photo

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize within int32 so the OFFSET never overflows.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// TotalPages returns ceil(total/pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// NextPageAfterDelete returns the page a view should show after deleting one of
// rowsOnPage rows from page: the previous page when page empties and is not the first.
func NextPageAfterDelete(page, rowsOnPage int) int {
	if page > 1 && rowsOnPage <= 1 {
		return page - 1
	}
	if page < 1 {
		return 1
	}
	return page
}

// normalizePage clamps page to 1..MaxPage and pageSize to 1..MaxPageSize.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
