// internal/utils/pagination_test.go
package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string) PaginationParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/v1/beats?"+query, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
		{"page=3&limit=50&sort=bpm&order=ASC", PaginationParams{Page: 3, Limit: 50, Sort: "bpm", Order: "asc"}},
		{"sort=price&search=dark", PaginationParams{Page: 1, Limit: 20, Sort: "non_exclusive_price", Order: "desc", Search: "dark"}},
		{"page=-2&limit=500&sort=password_hash&order=sideways", PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, paramsFor(tt.query))
		})
	}
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]string{"a"}, 41, PaginationParams{Page: 2, Limit: 20})
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 2, result.Page)

	empty := CreatePaginationResult(nil, 0, PaginationParams{})
	assert.Equal(t, 20, empty.Limit)
	assert.Equal(t, 0, empty.TotalPages)
}
