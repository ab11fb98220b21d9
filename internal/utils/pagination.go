package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// Page describes the current page of a listing for the templates
type Page struct {
	Number     int
	Limit      int
	Total      int64
	TotalPages int
}

// HasPrev reports whether a previous page exists
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

func (p Page) Prev() int { return p.Number - 1 }
func (p Page) Next() int { return p.Number + 1 }

// NewPage computes page metadata for a listing of total rows
func NewPage(params PaginationParams, total int64) Page {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int(total) / params.Limit
		if int(total)%params.Limit > 0 {
			totalPages++
		}
	}
	return Page{
		Number:     params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPageSize)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	return NewPaginationParams(page, limit)
}

// NewPaginationParams clamps page and limit into the allowed range
func NewPaginationParams(page, limit int) PaginationParams {
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
