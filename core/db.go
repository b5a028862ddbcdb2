package core

import "strings"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderingClause renders the orderings whose field is allowed, mapping API field names to columns.
// fallback is used when nothing valid remains.
func OrderingClause(orderings []DBOrdering, allowed map[string]string, fallback DBOrdering) string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := allowed[ord.Field]; ok {
			parts = append(parts, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(parts) == 0 {
		return fallback.String()
	}
	return strings.Join(parts, ", ")
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func NewPage(page, limit int) Page {
	p := Page{Page: page, Limit: limit}
	p.Clean()
	return p
}

func (p *Page) Clean() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageInfo describes a page of results.
type PageInfo struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

func NewPageInfo(p Page, total int) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}
