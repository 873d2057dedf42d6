package listview

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *Controller[int] {
	t.Helper()
	c, err := New[int](Options{
		Orderable:        []string{"id", "name", "price"},
		DefaultSort:      "id",
		DefaultDirection: Desc,
		PageSize:         10,
		PageSizes:        []int{10, 25, 50, 100},
		Filterable:       []string{"category_id"},
	})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no orderable", Options{DefaultSort: "id", PageSize: 10}},
		{"default not orderable", Options{Orderable: []string{"name"}, DefaultSort: "id", PageSize: 10}},
		{"zero page size", Options{Orderable: []string{"id"}, DefaultSort: "id"}},
		{"page size not offered", Options{Orderable: []string{"id"}, DefaultSort: "id", PageSize: 7, PageSizes: []int{10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[int](tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestController_Defaults(t *testing.T) {
	c := newTestController(t)
	q := c.Query()
	assert.Equal(t, "id", q.SortColumn)
	assert.Equal(t, Desc, q.SortDirection)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Empty(t, q.Search)
	assert.Nil(t, q.Filters)
}

func TestSetSort_SameColumnAlternates(t *testing.T) {
	c := newTestController(t)
	c.SetSort("name")
	_, dir := c.Sort()
	require.Equal(t, Asc, dir)

	want := Asc
	for i := 0; i < 9; i++ {
		c.SetSort("name")
		want = want.Flip()
		col, dir := c.Sort()
		assert.Equal(t, "name", col)
		assert.Equal(t, want, dir, "call %d", i)
	}
}

func TestSetSort_NewColumnOnlyChangesColumn(t *testing.T) {
	c := newTestController(t)
	c.SetSort("name")
	c.SetSort("name") // name desc
	c.SetSort("price")
	col, dir := c.Sort()
	assert.Equal(t, "price", col)
	assert.Equal(t, Asc, dir)
}

func TestSetSort_ConfiguredNewColumnDirection(t *testing.T) {
	c, err := New[int](Options{
		Orderable:          []string{"id", "name"},
		DefaultSort:        "id",
		PageSize:           10,
		NewColumnDirection: Desc,
	})
	require.NoError(t, err)
	c.SetSort("name")
	_, dir := c.Sort()
	assert.Equal(t, Desc, dir)
}

func TestSetSort_UnknownColumnFallsBackToDefault(t *testing.T) {
	c := newTestController(t)
	inputs := []string{"name", "password_hash", "id; DROP TABLE customers", "", "price", "NAME", "name"}
	for _, in := range inputs {
		c.SetSort(in)
		q := c.Query()
		assert.Contains(t, c.Options().Orderable, q.SortColumn, "after SetSort(%q)", in)
	}

	c = newTestController(t)
	c.SetSort("bogus")
	col, dir := c.Sort()
	assert.Equal(t, "id", col)
	assert.Equal(t, Desc, dir, "unknown input does not toggle the default sort")
	c.SetSort("bogus")
	_, dir = c.Sort()
	assert.Equal(t, Desc, dir)

	c.SetSort("name")
	c.SetSort("name")
	c.SetSort("'; --")
	col, dir = c.Sort()
	assert.Equal(t, "id", col, "unknown input restores the default sort")
	assert.Equal(t, Desc, dir)
}

func TestSetSearch_ResetsPageAndClearsSelectionOnChange(t *testing.T) {
	c := newTestController(t)
	c.Reconcile(95)
	c.GoToPage(4)
	c.ToggleRowSelected(1)
	c.ToggleRowSelected(2)

	c.SetSearch("widget")
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, "widget", c.Query().Search)
	assert.Zero(t, c.SelectedCount())

	c.ToggleRowSelected(3)
	c.GoToPage(2)
	c.SetSearch("  widget ")
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, 1, c.SelectedCount(), "unchanged search keeps the selection")
}

func TestSelectionSurvivesSortAndPaging(t *testing.T) {
	c := newTestController(t)
	c.Reconcile(40)
	c.ToggleSelectAllOnPage([]int{1, 2, 3})
	c.SetSort("name")
	c.GoToPage(3)
	require.NoError(t, c.SetPageSize(25))
	assert.Equal(t, []int{1, 2, 3}, c.Selected())
}

func TestSetFilter(t *testing.T) {
	c := newTestController(t)
	c.ToggleRowSelected(9)
	require.NoError(t, c.SetFilter("category_id", "3"))
	assert.Equal(t, map[string]string{"category_id": "3"}, c.Query().Filters)
	assert.Zero(t, c.SelectedCount())

	require.NoError(t, c.SetFilter("category_id", "all"))
	assert.Nil(t, c.Query().Filters)

	err := c.SetFilter("owner", "x")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestQuery_FiltersAreCopied(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.SetFilter("category_id", "3"))
	q := c.Query()
	q.Filters["category_id"] = "99"
	assert.Equal(t, "3", c.Query().Filters["category_id"])
}

func TestSetPageSize(t *testing.T) {
	c := newTestController(t)
	c.Reconcile(500)
	c.GoToPage(7)

	require.NoError(t, c.SetPageSize(50))
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, 50, c.PageSize())

	c.GoToPage(3)
	assert.ErrorIs(t, c.SetPageSize(0), ErrValidationFailed)
	assert.ErrorIs(t, c.SetPageSize(-5), ErrValidationFailed)
	assert.ErrorIs(t, c.SetPageSize(33), ErrValidationFailed)
	assert.Equal(t, 50, c.PageSize(), "rejected size leaves state alone")
	assert.Equal(t, 3, c.Page())
}

func TestGoToPage_Clamps(t *testing.T) {
	c := newTestController(t)

	c.GoToPage(9)
	assert.Equal(t, 9, c.Page(), "upper bound unknown before the first render")
	c.GoToPage(-2)
	assert.Equal(t, 1, c.Page())

	c.GoToPage(9)
	moved := c.Reconcile(23)
	assert.True(t, moved)
	assert.Equal(t, 3, c.Page())

	for _, n := range []int{-10, 0, 1, 2, 3, 4, 1000} {
		c.GoToPage(n)
		assert.GreaterOrEqual(t, c.Page(), 1)
		assert.LessOrEqual(t, c.Page(), c.TotalPages())
	}
}

func TestReconcile_EmptyResult(t *testing.T) {
	c := newTestController(t)
	c.GoToPage(5)
	c.Reconcile(0)
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, 1, c.TotalPages())
	total, known := c.Total()
	assert.Zero(t, total)
	assert.True(t, known)
}

func TestToggleRowSelected_Involution(t *testing.T) {
	c := newTestController(t)
	c.ToggleRowSelected(4)
	c.ToggleRowSelected(8)
	before := c.Selected()

	for _, id := range []int{4, 15, 8} {
		c.ToggleRowSelected(id)
		c.ToggleRowSelected(id)
		assert.Equal(t, before, c.Selected())
	}
}

func TestToggleSelectAllOnPage(t *testing.T) {
	c := newTestController(t)
	c.ToggleRowSelected(1)
	c.ToggleRowSelected(2)
	c.ToggleRowSelected(3)

	c.ToggleSelectAllOnPage([]int{1, 2, 3})
	assert.Empty(t, c.Selected())
	c.ToggleSelectAllOnPage([]int{1, 2, 3})
	assert.Equal(t, []int{1, 2, 3}, c.Selected())
}

func TestToggleSelectAllOnPage_PartialSelectsRest(t *testing.T) {
	c := newTestController(t)
	c.ToggleRowSelected(2)
	c.ToggleRowSelected(40) // another page

	c.ToggleSelectAllOnPage([]int{1, 2, 3})
	assert.ElementsMatch(t, []int{1, 2, 3, 40}, c.Selected())
	assert.True(t, c.AllSelected([]int{1, 2, 3}))

	c.ToggleSelectAllOnPage([]int{1, 2, 3})
	assert.Equal(t, []int{40}, c.Selected(), "other pages are untouched")
}

func TestToggleSelectAllOnPage_TwoCallsRestore(t *testing.T) {
	starts := [][]int{{}, {1}, {1, 2, 3}, {7, 8}}
	for _, start := range starts {
		c := newTestController(t)
		for _, id := range start {
			c.ToggleRowSelected(id)
		}
		page := []int{1, 2, 3}
		allBefore := c.AllSelected(page)
		c.ToggleSelectAllOnPage(page)
		c.ToggleSelectAllOnPage(page)
		// From "all selected" the pair round-trips exactly; otherwise the first call
		// selects the whole page and the second clears it.
		if allBefore {
			assert.ElementsMatch(t, start, c.Selected())
		} else {
			for _, id := range page {
				assert.False(t, c.IsSelected(id))
			}
		}
	}
}

func TestToggleSelectAll_EmptyIsNoop(t *testing.T) {
	c := newTestController(t)
	c.ToggleRowSelected(5)
	c.ToggleSelectAllOnPage(nil)
	c.ToggleSelectAllMatching([]int{})
	assert.Equal(t, []int{5}, c.Selected())
	assert.False(t, c.AllSelected(nil))
}

func TestToggleSelectAllMatching(t *testing.T) {
	c := newTestController(t)
	all := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	c.ToggleSelectAllMatching(all)
	assert.Equal(t, len(all), c.SelectedCount())
	c.ToggleSelectAllMatching(all)
	assert.Zero(t, c.SelectedCount())
}

func TestClearSelection(t *testing.T) {
	c := newTestController(t)
	c.ToggleSelectAllOnPage([]int{1, 2})
	snap := c.Selected()
	c.ClearSelection()
	assert.Zero(t, c.SelectedCount())
	assert.Equal(t, []int{1, 2}, snap, "snapshots are copies")
}

func TestSelectionOrderIsStable(t *testing.T) {
	c := newTestController(t)
	for _, id := range []int{5, 3, 9, 1} {
		c.ToggleRowSelected(id)
	}
	c.ToggleRowSelected(3)
	assert.Equal(t, []int{5, 9, 1}, c.Selected())
	assert.True(t, c.IsSelected(9))
	assert.False(t, c.IsSelected(3))
}

func TestState(t *testing.T) {
	c := newTestController(t)
	c.SetSearch("acme")
	c.Reconcile(23)
	c.ToggleRowSelected(2)

	s := c.State()
	assert.Equal(t, "acme", s.Search)
	assert.Equal(t, 23, s.TotalItems)
	assert.Equal(t, 3, s.TotalPages)
	assert.Equal(t, 1, s.SelectedCount)
	assert.True(t, slices.Equal([]int{10, 25, 50, 100}, s.PageSizes))
}

func TestSetFilter_RejectedValueLeavesState(t *testing.T) {
	c, err := New[int](Options{
		Orderable:   []string{"id"},
		DefaultSort: "id",
		PageSize:    10,
		Filterable:  []string{"trashed"},
		CheckFilter: func(_, value string) error {
			if value != "only" && value != "with" {
				return errors.New("bad trashed value")
			}
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, c.SetFilter("trashed", "only"))
	c.Reconcile(40)
	c.GoToPage(3)
	c.ToggleRowSelected(7)

	err = c.SetFilter("trashed", "bogus")
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, map[string]string{"trashed": "only"}, c.Query().Filters)
	assert.Equal(t, 3, c.Page())
	assert.Equal(t, []int{7}, c.Selected())

	require.NoError(t, c.SetFilter("trashed", "all"), "removal is never vetted")
	assert.Nil(t, c.Query().Filters)
}
