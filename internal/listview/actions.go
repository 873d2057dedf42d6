package listview

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Actions runs the operations of a list screen that need collaborators: rendering,
// bulk delete, export, import and select-all-matching. Every operation that reads
// the selection works on a snapshot and clears the selection only on success.
type Actions[ID comparable, T any] struct {
	Resource string
	Store    Store[ID, T]
	Auth     Authorizer
	Exporter Exporter[T]
	Importer Importer
	Notifier Notifier
	// IDOf returns the id of a record.
	IDOf func(T) ID
}

// BulkResult reports what a bulk action did with the selection snapshot.
type BulkResult[ID comparable] struct {
	Requested int  `json:"requested"`
	Affected  int  `json:"affected"`
	Stale     []ID `json:"stale"`
}

// Warning returns a StaleSelection error describing skipped ids, or nil when none
// were skipped. It is informational; the action itself succeeded.
func (r BulkResult[ID]) Warning() error {
	if len(r.Stale) == 0 {
		return nil
	}
	return &Error{Kind: ErrStaleSelection, Err: fmt.Errorf("%d selected row(s) no longer exist", len(r.Stale)), Details: r.Stale}
}

func (a *Actions[ID, T]) authorize(ctx context.Context, op string, action Action, subject Subject) error {
	if a.Auth == nil || a.Auth.Check(ctx, a.Resource, action, subject) != Allow {
		return denied(op, a.Resource, action)
	}
	return nil
}

func (a *Actions[ID, T]) notify(ctx context.Context, n Notification) {
	if a.Notifier == nil {
		return
	}
	n.Resource = a.Resource
	a.Notifier.Notify(ctx, n)
}

// renderAttempts bounds the store round trips of one Render.
const renderAttempts = 3

// Render queries the page described by c. If the store reports fewer pages than
// c expects, c is clamped to the last page and the store is queried again until
// the returned page is the one c points at.
func (a *Actions[ID, T]) Render(ctx context.Context, c *Controller[ID], subject Subject) (Page[T], error) {
	const op = "render"
	if err := a.authorize(ctx, op, ActionAccess, subject); err != nil {
		return Page[T]{}, err
	}
	page, err := a.Store.Page(ctx, c.Query())
	if err != nil {
		return Page[T]{}, collaboratorFailure(op, a.Resource, err)
	}
	for attempt := 1; c.Reconcile(page.TotalItems); attempt++ {
		if attempt == renderAttempts {
			return Page[T]{}, collaboratorFailure(op, a.Resource, fmt.Errorf("result set still shrinking after %d queries", attempt))
		}
		page, err = a.Store.Page(ctx, c.Query())
		if err != nil {
			return Page[T]{}, collaboratorFailure(op, a.Resource, err)
		}
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

// IDs returns the ids of the records on page in order.
func (a *Actions[ID, T]) IDs(page Page[T]) []ID {
	ids := make([]ID, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, a.IDOf(item))
	}
	return ids
}

// ToggleSelectAllMatching loads every id matching c's current filter and toggles
// them as one group. It returns the loaded snapshot.
func (a *Actions[ID, T]) ToggleSelectAllMatching(ctx context.Context, c *Controller[ID], subject Subject) ([]ID, error) {
	const op = "select all"
	if err := a.authorize(ctx, op, ActionAccess, subject); err != nil {
		return nil, err
	}
	ids, err := a.Store.MatchingIDs(ctx, c.Query())
	if err != nil {
		return nil, collaboratorFailure(op, a.Resource, err)
	}
	c.ToggleSelectAllMatching(ids)
	return ids, nil
}

// DeleteSelected deletes the selected rows that still exist. Ids that have
// disappeared since they were selected are reported as stale and skipped.
func (a *Actions[ID, T]) DeleteSelected(ctx context.Context, c *Controller[ID], subject Subject) (BulkResult[ID], error) {
	const op = "delete selected"
	if err := a.authorize(ctx, op, ActionDelete, subject); err != nil {
		return BulkResult[ID]{}, err
	}
	snapshot := c.Selected()
	res := BulkResult[ID]{Requested: len(snapshot), Stale: []ID{}}
	if len(snapshot) == 0 {
		return res, nil
	}

	live, err := a.Store.Existing(ctx, snapshot)
	if err != nil {
		return BulkResult[ID]{}, collaboratorFailure(op, a.Resource, err)
	}
	res.Stale = staleIDs(snapshot, live)
	if len(live) > 0 {
		n, err := a.Store.Delete(ctx, live)
		if err != nil {
			return BulkResult[ID]{}, collaboratorFailure(op, a.Resource, err)
		}
		res.Affected = n
	}

	c.ClearSelection()
	a.notify(ctx, Notification{
		Title:   "Deleted",
		Message: fmt.Sprintf("%d %s record(s) deleted successfully", res.Affected, a.Resource),
		Kind:    "success",
	})
	return res, nil
}

// Delete removes a single row. The row is also dropped from c's selection when c is non-nil.
func (a *Actions[ID, T]) Delete(ctx context.Context, c *Controller[ID], subject Subject, id ID) error {
	const op = "delete"
	if err := a.authorize(ctx, op, ActionDelete, subject); err != nil {
		return err
	}
	n, err := a.Store.Delete(ctx, []ID{id})
	if err != nil {
		return collaboratorFailure(op, a.Resource, err)
	}
	if n == 0 {
		return NotFound(a.Resource, id)
	}
	if c != nil && c.IsSelected(id) {
		c.ToggleRowSelected(id)
	}
	a.notify(ctx, Notification{
		Title:   "Deleted",
		Message: fmt.Sprintf("%s %v deleted successfully", a.Resource, id),
		Kind:    "success",
	})
	return nil
}

// ExportResult accompanies an exported artifact.
type ExportResult struct {
	Exported int `json:"exported"`
	Stale    int `json:"stale"`
}

// ExportSelected renders the selected rows. Missing rows are skipped.
func (a *Actions[ID, T]) ExportSelected(ctx context.Context, c *Controller[ID], subject Subject, format Format) (Artifact, ExportResult, error) {
	const op = "export selected"
	if err := a.authorize(ctx, op, ActionExport, subject); err != nil {
		return Artifact{}, ExportResult{}, err
	}
	snapshot := c.Selected()
	if len(snapshot) == 0 {
		return Artifact{}, ExportResult{}, invalid(op, a.Resource, errors.New("no rows selected"))
	}
	records, err := a.Store.Find(ctx, snapshot)
	if err != nil {
		return Artifact{}, ExportResult{}, collaboratorFailure(op, a.Resource, err)
	}
	art, err := a.export(ctx, op, records, format)
	if err != nil {
		return Artifact{}, ExportResult{}, err
	}
	c.ClearSelection()
	return art, ExportResult{Exported: len(records), Stale: len(snapshot) - len(records)}, nil
}

// ExportAll renders every row matching c's current search and filters. The
// selection is not touched.
func (a *Actions[ID, T]) ExportAll(ctx context.Context, c *Controller[ID], subject Subject, format Format) (Artifact, ExportResult, error) {
	const op = "export all"
	if err := a.authorize(ctx, op, ActionExport, subject); err != nil {
		return Artifact{}, ExportResult{}, err
	}
	records, err := a.Store.Matching(ctx, c.Query())
	if err != nil {
		return Artifact{}, ExportResult{}, collaboratorFailure(op, a.Resource, err)
	}
	art, err := a.export(ctx, op, records, format)
	if err != nil {
		return Artifact{}, ExportResult{}, err
	}
	return art, ExportResult{Exported: len(records)}, nil
}

func (a *Actions[ID, T]) export(ctx context.Context, op string, records []T, format Format) (Artifact, error) {
	if a.Exporter == nil {
		return Artifact{}, collaboratorFailure(op, a.Resource, errors.New("no exporter configured"))
	}
	art, err := a.Exporter.Export(ctx, records, format)
	if err != nil {
		return Artifact{}, collaboratorFailure(op, a.Resource, err)
	}
	return art, nil
}

// Import loads an uploaded file through the Importer.
func (a *Actions[ID, T]) Import(ctx context.Context, subject Subject, r io.Reader, filename string) (ImportReport, error) {
	const op = "import"
	if err := a.authorize(ctx, op, ActionImport, subject); err != nil {
		return ImportReport{}, err
	}
	if a.Importer == nil {
		return ImportReport{}, collaboratorFailure(op, a.Resource, errors.New("no importer configured"))
	}
	rep, err := a.Importer.Import(ctx, r, filename)
	if err != nil {
		return ImportReport{}, collaboratorFailure(op, a.Resource, err)
	}
	a.notify(ctx, Notification{
		Title:   "Imported",
		Message: fmt.Sprintf("%d %s record(s) imported successfully", rep.Inserted, a.Resource),
		Kind:    "success",
	})
	return rep, nil
}

func staleIDs[ID comparable](snapshot, live []ID) []ID {
	alive := make(map[ID]struct{}, len(live))
	for _, id := range live {
		alive[id] = struct{}{}
	}
	stale := []ID{}
	for _, id := range snapshot {
		if _, ok := alive[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}
