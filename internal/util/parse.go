package util

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseBool parses a form/query boolean, returning defaultValue if unset or invalid
func ParseBool(s string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(s); err == nil {
		return val
	}
	return defaultValue
}

// Page is a parsed page/limit pair
type Page struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads ?page= and ?limit= with a default and a ceiling on limit
func ParsePage(c *gin.Context, defaultLimit, maxLimit int) Page {
	page := ParseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := ParseInt(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	// keep (page-1)*limit within int32 so every driver accepts the offset
	if maxPage := math.MaxInt32/limit + 1; page > maxPage {
		page = maxPage
	}
	return Page{Page: page, Limit: limit}
}

// Pagination is the page metadata returned alongside list results
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination builds the metadata for a page given the total row count
func NewPagination(p Page, total int64) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	return Pagination{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		Total:       total,
		Limit:       p.Limit,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}
