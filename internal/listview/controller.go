// Package listview implements the server-side state behind a searchable, sortable,
// paginated list screen with multi-row selection, and the bulk actions that read it.
//
// A Controller belongs to one view session. It is not safe for concurrent use; callers
// that share a controller across goroutines must serialise access.
package listview

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Controller holds the transient UI state of one list view.
type Controller[ID comparable] struct {
	opts Options

	search   string
	filters  map[string]string
	sortCol  string
	sortDir  Direction
	page     int
	pageSize int

	// total is the item count reported by the last render; -1 until known.
	total int

	selection Selection[ID]
}

// New returns a controller positioned on page 1 with the default sort.
func New[ID comparable](opts Options) (*Controller[ID], error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("listview options: %w", err)
	}
	if opts.DefaultDirection == "" {
		opts.DefaultDirection = Asc
	}
	if opts.NewColumnDirection == "" {
		opts.NewColumnDirection = Asc
	}
	return &Controller[ID]{
		opts:      opts,
		filters:   make(map[string]string),
		sortCol:   opts.DefaultSort,
		sortDir:   opts.DefaultDirection,
		page:      1,
		pageSize:  opts.PageSize,
		total:     -1,
		selection: newSelection[ID](),
	}, nil
}

// Options returns the configuration the controller was built with.
func (c *Controller[ID]) Options() Options { return c.opts }

// SetSearch replaces the free-text search and returns to page 1.
// A changed search invalidates the previous result set, so the selection is cleared.
func (c *Controller[ID]) SetSearch(text string) {
	text = strings.TrimSpace(text)
	if text != c.search {
		c.selection.clear()
		c.total = -1
	}
	c.search = text
	c.page = 1
}

// Search returns the current free-text search.
func (c *Controller[ID]) Search() string { return c.search }

// SetFilter sets a structured filter. An empty value or "all" removes it. A
// rejected key or value leaves the state unchanged.
func (c *Controller[ID]) SetFilter(key, value string) error {
	if !slices.Contains(c.opts.Filterable, key) {
		return invalid("set filter", "", fmt.Errorf("unknown filter %q", key))
	}
	value = strings.TrimSpace(value)
	if value == "all" {
		value = ""
	}
	if value != "" && c.opts.CheckFilter != nil {
		if err := c.opts.CheckFilter(key, value); err != nil {
			return invalid("set filter", "", err)
		}
	}
	if c.filters[key] != value {
		c.selection.clear()
		c.total = -1
	}
	if value == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
	c.page = 1
	return nil
}

// SetSort toggles the direction when column is already the sort column, otherwise
// switches to column with the configured direction. A column outside the
// allow-list restores the default sort and never toggles.
func (c *Controller[ID]) SetSort(column string) {
	column = strings.TrimSpace(column)
	if !slices.Contains(c.opts.Orderable, column) {
		c.sortCol = c.opts.DefaultSort
		c.sortDir = c.opts.DefaultDirection
		return
	}
	if column == c.sortCol {
		c.sortDir = c.sortDir.Flip()
		return
	}
	c.sortCol = column
	c.sortDir = c.opts.NewColumnDirection
}

// Sort returns the current sort column and direction.
func (c *Controller[ID]) Sort() (string, Direction) { return c.sortCol, c.sortDir }

func (c *Controller[ID]) orderable(column string) string {
	column = strings.TrimSpace(column)
	if slices.Contains(c.opts.Orderable, column) {
		return column
	}
	return c.opts.DefaultSort
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller[ID]) SetPageSize(n int) error {
	if n < 1 {
		return invalid("set page size", "", fmt.Errorf("page size must be positive, got %d", n))
	}
	if len(c.opts.PageSizes) > 0 && !slices.Contains(c.opts.PageSizes, n) {
		return invalid("set page size", "", fmt.Errorf("page size must be one of %v, got %d", c.opts.PageSizes, n))
	}
	c.pageSize = n
	c.page = 1
	return nil
}

// GoToPage moves to page n, clamped to [1, TotalPages]. Before the first render
// only the lower bound is known; Reconcile applies the upper bound afterwards.
func (c *Controller[ID]) GoToPage(n int) {
	if n < 1 {
		n = 1
	}
	if c.total >= 0 {
		n = min(n, TotalPages(c.total, c.pageSize))
	}
	c.page = n
}

// Page returns the current page number.
func (c *Controller[ID]) Page() int { return c.page }

// PageSize returns the current page size.
func (c *Controller[ID]) PageSize() int { return c.pageSize }

// Reconcile records the authoritative item count from the store and clamps the
// current page into range. It reports whether the page moved, in which case the
// caller should query again.
func (c *Controller[ID]) Reconcile(total int) bool {
	if total < 0 {
		total = 0
	}
	c.total = total
	last := TotalPages(total, c.pageSize)
	if c.page > last {
		c.page = last
		return true
	}
	return false
}

// Total returns the last reconciled item count and whether one is known.
func (c *Controller[ID]) Total() (int, bool) {
	return max(c.total, 0), c.total >= 0
}

// TotalPages is the page count for the last reconciled total, or 1 if unknown.
func (c *Controller[ID]) TotalPages() int {
	if c.total < 0 {
		return 1
	}
	return TotalPages(c.total, c.pageSize)
}

// ToggleRowSelected adds id to the selection if absent, otherwise removes it.
func (c *Controller[ID]) ToggleRowSelected(id ID) {
	if c.selection.Has(id) {
		c.selection.remove(id)
		return
	}
	c.selection.add(id)
}

// ToggleSelectAllOnPage deselects pageIDs when every one of them is selected and
// selects them all otherwise. Selections on other pages are left alone.
func (c *Controller[ID]) ToggleSelectAllOnPage(pageIDs []ID) {
	c.selection.toggleAll(pageIDs)
}

// ToggleSelectAllMatching is ToggleSelectAllOnPage against every id matching the
// current filter.
func (c *Controller[ID]) ToggleSelectAllMatching(matchingIDs []ID) {
	c.selection.toggleAll(matchingIDs)
}

// ClearSelection empties the selection.
func (c *Controller[ID]) ClearSelection() { c.selection.clear() }

// IsSelected reports whether id is selected.
func (c *Controller[ID]) IsSelected(id ID) bool { return c.selection.Has(id) }

// AllSelected reports whether every id in ids is selected. False for no ids.
func (c *Controller[ID]) AllSelected(ids []ID) bool { return c.selection.containsAll(ids) }

// SelectedCount is the size of the selection.
func (c *Controller[ID]) SelectedCount() int { return c.selection.Len() }

// Selected returns a snapshot of the selection.
func (c *Controller[ID]) Selected() []ID { return c.selection.Snapshot() }

// Query derives the storage query for the current state. It has no side effects.
func (c *Controller[ID]) Query() QuerySpec {
	q := QuerySpec{
		Search:        c.search,
		SortColumn:    c.orderable(c.sortCol),
		SortDirection: c.sortDir,
		Page:          max(c.page, 1),
		PageSize:      max(c.pageSize, 1),
	}
	if len(c.filters) > 0 {
		q.Filters = maps.Clone(c.filters)
	}
	return q
}

// State is a serialisable summary of the controller for rendering.
type State[ID comparable] struct {
	Search        string            `json:"search"`
	Filters       map[string]string `json:"filters,omitempty"`
	SortColumn    string            `json:"sort_column"`
	SortDirection Direction         `json:"sort_direction"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
	PageSizes     []int             `json:"page_sizes,omitempty"`
	TotalItems    int               `json:"total_items"`
	TotalPages    int               `json:"total_pages"`
	Orderable     []string          `json:"orderable"`
	Selected      []ID              `json:"selected"`
	SelectedCount int               `json:"selected_count"`
}

// State snapshots the controller.
func (c *Controller[ID]) State() State[ID] {
	q := c.Query()
	total, _ := c.Total()
	return State[ID]{
		Search:        q.Search,
		Filters:       q.Filters,
		SortColumn:    q.SortColumn,
		SortDirection: q.SortDirection,
		Page:          q.Page,
		PageSize:      q.PageSize,
		PageSizes:     slices.Clone(c.opts.PageSizes),
		TotalItems:    total,
		TotalPages:    c.TotalPages(),
		Orderable:     slices.Clone(c.opts.Orderable),
		Selected:      c.Selected(),
		SelectedCount: c.SelectedCount(),
	}
}
