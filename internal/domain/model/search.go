package model

import (
	"strings"
	"time"
)

// VideoPreview is the list/search projection of a Video.
type VideoPreview struct {
	ID          VideoID
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable video columns.
const (
	SortByTitle      = "title"
	SortByCreatedAt  = "createdAt"
	SortByUpdatedAt  = "updatedAt"
	SortByLaunchedAt = "launchedAt"
	SortByDuration   = "duration"
)

var sortAliases = map[string]string{
	"title":         SortByTitle,
	"name":          SortByTitle,
	"createdat":     SortByCreatedAt,
	"created_at":    SortByCreatedAt,
	"updatedat":     SortByUpdatedAt,
	"updated_at":    SortByUpdatedAt,
	"launchedat":    SortByLaunchedAt,
	"year_launched": SortByLaunchedAt,
	"duration":      SortByDuration,
}

// VideoSearchQuery describes a filtered, sorted page of videos.
// Empty relation filters are not applied.
type VideoSearchQuery struct {
	Page        int
	PerPage     int
	Terms       string
	Sort        string
	Direction   string
	Categories  IDSet[CategoryID]
	Genres      IDSet[GenreID]
	CastMembers IDSet[CastMemberID]
}

// SortColumn returns the whitelisted sort key, defaulting to createdAt.
func (q VideoSearchQuery) SortColumn() string {
	if col, ok := sortAliases[strings.ToLower(strings.TrimSpace(q.Sort))]; ok {
		return col
	}
	return SortByCreatedAt
}

// SortDirection returns asc or desc, defaulting to asc.
func (q VideoSearchQuery) SortDirection() string {
	if strings.EqualFold(strings.TrimSpace(q.Direction), SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// NormalizedTerms returns the trimmed search terms.
func (q VideoSearchQuery) NormalizedTerms() string {
	return strings.TrimSpace(q.Terms)
}

// Offset returns the number of rows to skip.
func (q VideoSearchQuery) Offset() int {
	page, perPage := q.Page, q.PerPage
	if page < 0 {
		page = 0
	}
	if perPage < 0 {
		perPage = 0
	}
	return page * perPage
}

// Pagination is one page of a larger result set.
type Pagination[T any] struct {
	CurrentPage int
	PerPage     int
	Total       int64
	Items       []T
}

// MapPagination converts the items of a page.
func MapPagination[T, R any](p *Pagination[T], fn func(T) R) *Pagination[R] {
	items := make([]R, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, fn(item))
	}
	return &Pagination[R]{
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
		Items:       items,
	}
}
