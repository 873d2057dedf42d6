package catalog

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"stockmaster/internal/audit"
	"stockmaster/internal/listview"
	"stockmaster/internal/models"
	"stockmaster/internal/server"
)

var (
	_ Resource = (*Screen[models.Customer])(nil)
	_ Resource = (*Screen[models.Product])(nil)
)

// Resource is the part of a screen that works without a list view: the
// command line uses it for batch export and import.
type Resource interface {
	server.Module
	Resource() string
	ExportMatching(ctx context.Context, subject listview.Subject, q Query, format listview.Format) (listview.Artifact, listview.ExportResult, error)
	ImportFile(ctx context.Context, subject listview.Subject, r io.Reader, filename string) (listview.ImportReport, error)
	Sample(format listview.Format) (listview.Artifact, error)
}

// Query narrows a batch export the same way a list view would.
type Query struct {
	Search  string
	Sort    string
	Filters map[string]string
}

// ExportMatching renders every record matching q.
func (s *Screen[T]) ExportMatching(ctx context.Context, subject listview.Subject, q Query, format listview.Format) (listview.Artifact, listview.ExportResult, error) {
	ctrl, err := listview.New[int64](s.opts)
	if err != nil {
		return listview.Artifact{}, listview.ExportResult{}, fmt.Errorf("%s view options: %w", s.resource, err)
	}
	ctrl.SetSearch(q.Search)
	if q.Sort != "" {
		ctrl.SetSort(q.Sort)
	}
	for _, key := range slices.Sorted(maps.Keys(q.Filters)) {
		if err := ctrl.SetFilter(key, q.Filters[key]); err != nil {
			return listview.Artifact{}, listview.ExportResult{}, err
		}
	}
	art, res, err := s.actions.ExportAll(ctx, ctrl, subject, format)
	if err != nil {
		return listview.Artifact{}, listview.ExportResult{}, err
	}
	if s.deps.Audit != nil {
		s.deps.Audit.LogExport(ctx, subject.Username, s.resource, string(format), res.Exported)
	}
	return art, res, nil
}

// ImportFile loads r into the screen's table.
func (s *Screen[T]) ImportFile(ctx context.Context, subject listview.Subject, r io.Reader, filename string) (listview.ImportReport, error) {
	rep, err := s.actions.Import(ctx, subject, r, filename)
	if err != nil {
		return listview.ImportReport{}, err
	}
	if s.deps.Audit != nil {
		s.deps.Audit.Log(ctx, subject.Username, audit.ActionImport, s.resource, "", fmt.Sprintf("Imported %d %s from %s", rep.Inserted, s.resource, filename))
	}
	return rep, nil
}

// Sample renders the header-only import template.
func (s *Screen[T]) Sample(format listview.Format) (listview.Artifact, error) {
	return s.importer.Sample(format)
}
