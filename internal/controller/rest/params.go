package rest

import (
	"strconv"
	"time"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/gin-gonic/gin"
)

type listResponse[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

func newList[T any](items []T, total int64, page, perPage int) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: total, Page: page, PerPage: perPage}
}

func paramID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid_id", "Identifier must be a positive integer.")
	}
	return id, nil
}

// queryInt необязательный целый параметр
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid_query", name+" must be an integer.")
	}
	return n, nil
}

// queryTime принимает RFC3339 или дату YYYY-MM-DD (начало суток в loc)
func queryTime(c *gin.Context, name string, loc *time.Location) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return &t, nil
	}
	return nil, apperr.Validation("invalid_query", name+" must be RFC3339 or YYYY-MM-DD.")
}

func pageParams(c *gin.Context) (int, int, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return 0, 0, err
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		return 0, 0, err
	}
	return page, perPage, nil
}
