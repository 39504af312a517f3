// Package pagination slices ordered result sets into fixed-size pages.
//
// Page numbers follow the usual web paginator contract: a missing or
// malformed number selects the first page, and a number outside the valid
// range (including zero and negatives) selects the last page. An empty
// result set still has exactly one, empty, page.
package pagination

import (
	"strconv"
	"strings"
)

// PerPage is the fixed feed page size
const PerPage = 10

// Window describes the rows a page covers
type Window struct {
	Number      int
	NumPages    int
	Count       int
	PerPage     int
	Offset      int
	Limit       int
	HasNext     bool
	HasPrevious bool
}

// ParsePage converts a raw query parameter into a requested page number.
// Non-integers yield 1; out-of-range integers are left for Resolve to clamp.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// Resolve clamps the requested page against count rows of perPage each
func Resolve(requested, count, perPage int) Window {
	if perPage <= 0 {
		perPage = PerPage
	}
	if count < 0 {
		count = 0
	}

	numPages := (count + perPage - 1) / perPage
	if numPages == 0 {
		numPages = 1
	}

	number := requested
	if number < 1 || number > numPages {
		number = numPages
	}

	offset := (number - 1) * perPage
	limit := perPage
	if offset+limit > count {
		limit = count - offset
	}
	if limit < 0 {
		limit = 0
	}

	return Window{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		Offset:      offset,
		Limit:       limit,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}
