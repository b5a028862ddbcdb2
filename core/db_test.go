package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	tests := []struct {
		name       string
		page       Page
		total      int
		wantPage   Page
		wantOffset int
		wantPages  int
	}{
		{name: "defaults", page: Page{}, total: 0, wantPage: Page{Page: 1, Limit: DefaultPageLimit}, wantOffset: 0, wantPages: 0},
		{name: "max limit", page: Page{Page: 2, Limit: 500}, total: 150, wantPage: Page{Page: 2, Limit: MaxPageLimit}, wantOffset: 100, wantPages: 2},
		{name: "partial last page", page: Page{Page: 3, Limit: 10}, total: 21, wantPage: Page{Page: 3, Limit: 10}, wantOffset: 20, wantPages: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page.Page, tt.page.Limit)
			assert.Equal(t, tt.wantPage, p)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.Equal(t, tt.wantPages, NewPageInfo(p, tt.total).Pages)
		})
	}
}

func TestOrderingClause(t *testing.T) {
	allowed := map[string]string{"created_at": "q.created_at", "title": "q.title"}
	fallback := DBOrdering{Field: "q.created_at"}

	assert.Equal(t, "q.created_at DESC", OrderingClause(nil, allowed, fallback))
	assert.Equal(t, "q.created_at DESC", OrderingClause([]DBOrdering{{Field: "password"}}, allowed, fallback))
	assert.Equal(t,
		"q.title ASC, q.created_at DESC",
		OrderingClause([]DBOrdering{{Field: "title", Ascending: true}, {Field: "created_at"}}, allowed, fallback),
	)
}
