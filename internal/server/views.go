package server

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockmaster/internal/listview"
)

// View is one open list screen: a controller owned by a single user, plus the
// ids the user has been shown: the last rendered page and the last
// select-all-matching snapshot. Rows can only be selected from those ids.
type View[ID comparable] struct {
	Handle     string
	Resource   string
	Owner      string
	Controller *listview.Controller[ID]

	mu sync.Mutex
	// scope is the search and filters pageIDs and matching were loaded under.
	scope    string
	pageIDs  []ID
	matching map[ID]struct{}
	touched  time.Time
}

// PageIDs returns the ids of the last rendered page, or nil when nothing has
// been rendered since the search or filters last changed.
func (v *View[ID]) PageIDs() []ID {
	v.sync()
	return slices.Clone(v.pageIDs)
}

// SetPageIDs remembers the ids of the page just rendered.
func (v *View[ID]) SetPageIDs(ids []ID) {
	v.sync()
	v.pageIDs = slices.Clone(ids)
}

// SetMatchingIDs remembers a select-all-matching snapshot.
func (v *View[ID]) SetMatchingIDs(ids []ID) {
	v.sync()
	v.matching = make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		v.matching[id] = struct{}{}
	}
}

// Shown reports whether id was on the last rendered page or in the last
// select-all snapshot of the current search and filters.
func (v *View[ID]) Shown(id ID) bool {
	v.sync()
	if _, ok := v.matching[id]; ok {
		return true
	}
	return slices.Contains(v.pageIDs, id)
}

// sync forgets the remembered ids once the controller's search or filters no
// longer match the ones they were loaded under.
func (v *View[ID]) sync() {
	scope := scopeOf(v.Controller.Query())
	if scope == v.scope {
		return
	}
	v.scope = scope
	v.pageIDs = nil
	v.matching = nil
}

func scopeOf(q listview.QuerySpec) string {
	var b strings.Builder
	b.WriteString(q.Search)
	for _, k := range slices.Sorted(maps.Keys(q.Filters)) {
		b.WriteString("\x00" + k + "=" + q.Filters[k])
	}
	return b.String()
}

// Views keeps the open views. Requests against one view are serialised; views
// idle for longer than the TTL are dropped.
type Views[ID comparable] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	views map[string]*View[ID]
}

// NewViews returns an empty registry. ttl <= 0 keeps views until closed.
func NewViews[ID comparable](ttl time.Duration) *Views[ID] {
	return &Views[ID]{ttl: ttl, now: time.Now, views: make(map[string]*View[ID])}
}

// Open registers ctrl for owner and returns its view.
func (r *Views[ID]) Open(resource, owner string, ctrl *listview.Controller[ID]) *View[ID] {
	now := r.now()
	v := &View[ID]{
		Handle:     uuid.NewString(),
		Resource:   resource,
		Owner:      owner,
		Controller: ctrl,
		scope:      scopeOf(ctrl.Query()),
		touched:    now,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(now)
	r.views[v.Handle] = v
	return v
}

func (r *Views[ID]) lookup(handle, resource, owner string) (*View[ID], error) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(now)
	v, ok := r.views[handle]
	if !ok || v.Resource != resource || v.Owner != owner {
		return nil, listview.NotFound("view", handle)
	}
	return v, nil
}

// With runs fn while holding the view's lock. Unknown handles, and handles
// owned by someone else, are reported as not found.
func (r *Views[ID]) With(handle, resource, owner string, fn func(v *View[ID]) error) error {
	v, err := r.lookup(handle, resource, owner)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.touched = r.now()
	return fn(v)
}

// Close forgets a view.
func (r *Views[ID]) Close(handle, resource, owner string) error {
	if _, err := r.lookup(handle, resource, owner); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.views, handle)
	r.mu.Unlock()
	return nil
}

// Len returns the number of open views.
func (r *Views[ID]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// prune must be called with r.mu held. Views currently in use are kept.
func (r *Views[ID]) prune(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for h, v := range r.views {
		if !v.mu.TryLock() {
			continue
		}
		if now.Sub(v.touched) > r.ttl {
			delete(r.views, h)
		}
		v.mu.Unlock()
	}
}
