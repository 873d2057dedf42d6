package listview

import (
	"fmt"
	"slices"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc/desc in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// SQL returns ASC or DESC.
func (d Direction) SQL() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// QuerySpec is what a Store needs to produce one page of a list.
type QuerySpec struct {
	Search        string            `json:"search,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
	SortColumn    string            `json:"sort_column"`
	SortDirection Direction         `json:"sort_direction"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
}

// Offset is the zero-based index of the first row on the page.
func (q QuerySpec) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Options configures a Controller for one record type.
type Options struct {
	// Orderable is the allow-list of sortable columns.
	Orderable []string
	// DefaultSort must be a member of Orderable.
	DefaultSort      string
	DefaultDirection Direction
	// NewColumnDirection is applied when the sort column changes. Defaults to Asc.
	NewColumnDirection Direction
	PageSize           int
	// PageSizes, when set, restricts SetPageSize to these values.
	PageSizes []int
	// Filterable lists the structured filter keys SetFilter accepts.
	Filterable []string
	// CheckFilter, when set, vets a non-empty filter value before SetFilter stores it.
	CheckFilter func(key, value string) error
}

func (o Options) validate() error {
	if len(o.Orderable) == 0 {
		return fmt.Errorf("no orderable columns")
	}
	if !slices.Contains(o.Orderable, o.DefaultSort) {
		return fmt.Errorf("default sort %q is not orderable", o.DefaultSort)
	}
	if o.PageSize < 1 {
		return fmt.Errorf("page size must be positive")
	}
	if len(o.PageSizes) > 0 && !slices.Contains(o.PageSizes, o.PageSize) {
		return fmt.Errorf("page size %d is not one of %v", o.PageSize, o.PageSizes)
	}
	return nil
}

// Page is one rendered slice of a result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
}

// TotalPages is at least 1 so that page 1 of an empty list is valid.
func (p Page[T]) TotalPages() int {
	return TotalPages(p.TotalItems, p.PageSize)
}

// TotalPages computes the page count for total items, never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate slices an already ordered sequence into the requested page.
// A page past the end yields an empty Items slice.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	out := Page[T]{Items: []T{}, Page: page, PageSize: pageSize, TotalItems: len(items)}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return out
	}
	end := min(start+pageSize, len(items))
	out.Items = append(out.Items, items[start:end]...)
	return out
}
