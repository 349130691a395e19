package query

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a validated page/limit pair.
type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit query values. Missing, malformed or
// non-positive values fall back to the defaults; limit is capped at MaxLimit.
func ParsePage(pageStr, limitStr string) Page {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.Atoi(pageStr); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

func (p Page) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// TotalPages is ceil(total/limit).
func (p Page) TotalPages(total int64) int64 {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(total) / float64(p.Limit)))
}
