// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// Catalog listings show the newest beats first.
	DefaultBeatSort  = "created_at"
	DefaultSortOrder = "desc"
)

// BeatSortFields maps the ?sort= values a catalog listing accepts to columns.
var BeatSortFields = map[string]string{
	"created_at":          "created_at",
	"newest":              "created_at",
	"title":               "title",
	"bpm":                 "bpm",
	"rating":              "rating",
	"price":               "non_exclusive_price",
	"non_exclusive_price": "non_exclusive_price",
	"exclusive_price":     "exclusive_price",
}

type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Sort   string `json:"sort"`
	Order  string `json:"order"`
	Search string `json:"search"`
}

// GetPaginationParams reads page, limit, sort, order and search from the query string.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Search: c.Query("search"),
	}.Normalized()
}

// Normalized clamps the page and limit and resolves sort and order against the
// beat whitelist. Zero params become the first page of newest beats.
func (p PaginationParams) Normalized() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		p.Limit = DefaultPageLimit
	}

	column, ok := BeatSortFields[strings.ToLower(strings.TrimSpace(p.Sort))]
	if !ok {
		column = DefaultBeatSort
	}
	p.Sort = column

	p.Order = strings.ToLower(p.Order)
	if p.Order != "asc" && p.Order != "desc" {
		p.Order = DefaultSortOrder
	}
	return p
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	params = params.Normalized()
	offset := (params.Page - 1) * params.Limit
	return db.Offset(offset).Limit(params.Limit)
}

// ApplySort orders by the whitelisted column, then by id so pages are stable.
func ApplySort(db *gorm.DB, params PaginationParams) *gorm.DB {
	params = params.Normalized()
	return db.Order(clause.OrderByColumn{
		Column: clause.Column{Name: params.Sort},
		Desc:   params.Order == "desc",
	}).Order("id")
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	params = params.Normalized()
	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
		Data:       data,
	}
}
