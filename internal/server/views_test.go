package server

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmaster/internal/listview"
)

func newController(t *testing.T) *listview.Controller[int64] {
	t.Helper()
	c, err := listview.New[int64](listview.Options{
		Orderable:        []string{"id", "name"},
		DefaultSort:      "id",
		DefaultDirection: listview.Desc,
		PageSize:         10,
		PageSizes:        []int{10, 25},
	})
	require.NoError(t, err)
	return c
}

func TestViews_OwnerAndResourceScoped(t *testing.T) {
	views := NewViews[int64](time.Hour)
	v := views.Open("customers", "alice", newController(t))
	require.NotEmpty(t, v.Handle)

	err := views.With(v.Handle, "customers", "alice", func(v *View[int64]) error {
		v.Controller.ToggleRowSelected(5)
		v.SetPageIDs([]int64{1, 2})
		return nil
	})
	require.NoError(t, err)

	for _, tc := range []struct{ resource, owner string }{
		{"customers", "bob"},
		{"products", "alice"},
	} {
		err := views.With(v.Handle, tc.resource, tc.owner, func(*View[int64]) error { return nil })
		assert.ErrorIs(t, err, listview.ErrNotFound)
	}
	assert.ErrorIs(t, views.With("missing", "customers", "alice", nil), listview.ErrNotFound)

	_ = views.With(v.Handle, "customers", "alice", func(v *View[int64]) error {
		assert.Equal(t, []int64{5}, v.Controller.Selected())
		assert.Equal(t, []int64{1, 2}, v.PageIDs())
		return nil
	})

	assert.ErrorIs(t, views.Close(v.Handle, "customers", "bob"), listview.ErrNotFound)
	require.NoError(t, views.Close(v.Handle, "customers", "alice"))
	assert.Zero(t, views.Len())
}

func TestViews_PropagatesCallbackError(t *testing.T) {
	views := NewViews[int64](time.Hour)
	v := views.Open("products", "alice", newController(t))
	boom := errors.New("boom")
	assert.ErrorIs(t, views.With(v.Handle, "products", "alice", func(*View[int64]) error { return boom }), boom)
}

func TestViews_IdleViewsArePruned(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	views := NewViews[int64](10 * time.Minute)
	views.now = func() time.Time { return now }

	stale := views.Open("customers", "alice", newController(t))
	now = now.Add(5 * time.Minute)
	fresh := views.Open("customers", "alice", newController(t))
	require.Equal(t, 2, views.Len())

	now = now.Add(6 * time.Minute)
	assert.ErrorIs(t, views.With(stale.Handle, "customers", "alice", func(*View[int64]) error { return nil }), listview.ErrNotFound)
	assert.NoError(t, views.With(fresh.Handle, "customers", "alice", func(*View[int64]) error { return nil }))
	assert.Equal(t, 1, views.Len())
}

func TestViews_SerialisesRequestsPerView(t *testing.T) {
	views := NewViews[int64](time.Hour)
	v := views.Open("customers", "alice", newController(t))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = views.With(v.Handle, "customers", "alice", func(v *View[int64]) error {
				v.Controller.ToggleRowSelected(id)
				return nil
			})
		}(int64(i))
	}
	wg.Wait()

	_ = views.With(v.Handle, "customers", "alice", func(v *View[int64]) error {
		assert.Equal(t, 50, v.Controller.SelectedCount())
		return nil
	})
}

func TestView_ShownIDsFollowSearch(t *testing.T) {
	views := NewViews[int64](time.Hour)
	v := views.Open("customers", "alice", newController(t))

	_ = views.With(v.Handle, "customers", "alice", func(v *View[int64]) error {
		assert.Nil(t, v.PageIDs(), "nothing rendered yet")
		assert.False(t, v.Shown(1))

		v.SetPageIDs([]int64{1, 2})
		v.SetMatchingIDs([]int64{1, 2, 3, 4})
		assert.True(t, v.Shown(2))
		assert.True(t, v.Shown(4), "select-all snapshot counts as shown")
		assert.False(t, v.Shown(9))

		v.Controller.SetSort("name")
		v.Controller.GoToPage(2)
		assert.Equal(t, []int64{1, 2}, v.PageIDs(), "sort and paging keep the remembered ids")

		v.Controller.SetSearch("acme")
		assert.Nil(t, v.PageIDs())
		assert.False(t, v.Shown(4))

		v.SetPageIDs([]int64{7})
		v.Controller.SetSearch("acme ")
		assert.Equal(t, []int64{7}, v.PageIDs(), "unchanged search keeps them")
		return nil
	})
}
