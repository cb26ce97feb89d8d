// Package pagination parses page/take/sort query parameters.
package pagination

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/eventhub/eventhub-api/internal/pkg/response"
)

const MaxTake = 100

// Params are the normalised list query parameters.
type Params struct {
	Page      int
	Take      int
	SortBy    string
	SortOrder string
	Search    string
}

// Parse reads page, take, sortBy, sortOrder and search from the query.
// Invalid numbers fall back to defaults instead of failing the request.
func Parse(r *http.Request, defaultTake int, defaultSort string) Params {
	q := r.URL.Query()
	p := Params{
		Page:      1,
		Take:      defaultTake,
		SortBy:    defaultSort,
		SortOrder: "desc",
		Search:    strings.TrimSpace(q.Get("search")),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("take")); err == nil && v > 0 {
		p.Take = v
	}
	if p.Take > MaxTake {
		p.Take = MaxTake
	}
	if s := q.Get("sortBy"); s != "" {
		p.SortBy = s
	}
	if o := strings.ToLower(q.Get("sortOrder")); o == "asc" || o == "desc" {
		p.SortOrder = o
	}
	return p
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Take
}

// OrderBy maps SortBy through allowed (API name -> column) and falls back
// to fallback, so user input never reaches SQL directly.
func (p Params) OrderBy(allowed map[string]string, fallback string) string {
	col, ok := allowed[p.SortBy]
	if !ok {
		col = fallback
	}
	return col + " " + strings.ToUpper(p.SortOrder)
}

// Meta builds the response meta block.
func (p Params) Meta(total int) response.Meta {
	return response.Meta{Page: p.Page, Take: p.Take, Total: total}
}
