// Package export renders tabular records as spreadsheet, PDF or CSV files.
package export

import (
	"context"
	"fmt"
	"strings"

	"stockmaster/internal/listview"
)

// Content types of the rendered artifacts.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
	ContentTypeCSV  = "text/csv"
)

// Table is the format-independent shape of an export.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Render encodes t in format. The artifact is named basename plus the format's extension.
func Render(t Table, format listview.Format, basename string) (listview.Artifact, error) {
	var (
		data []byte
		ct   string
		err  error
	)
	switch format {
	case listview.FormatXLSX:
		data, err = Excel(t)
		ct = ContentTypeXLSX
	case listview.FormatPDF:
		data, err = PDF(t)
		ct = ContentTypePDF
	case listview.FormatCSV:
		data, err = CSV(t)
		ct = ContentTypeCSV
	default:
		return listview.Artifact{}, listview.Invalid("export", fmt.Errorf("unsupported format %q", format))
	}
	if err != nil {
		return listview.Artifact{}, fmt.Errorf("render %s: %w", format, err)
	}
	return listview.Artifact{
		Filename:    strings.ToLower(basename) + "." + string(format),
		ContentType: ct,
		Data:        data,
	}, nil
}

// Column maps one field of a record to an export column.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Exporter is a listview.Exporter driven by a column list.
type Exporter[T any] struct {
	Title    string
	Basename string
	Columns  []Column[T]
}

// Table lays records out under the exporter's columns.
func (e *Exporter[T]) Table(records []T) Table {
	t := Table{Title: e.Title, Headers: e.Headers(), Rows: make([][]string, 0, len(records))}
	for _, rec := range records {
		row := make([]string, len(e.Columns))
		for i, col := range e.Columns {
			row[i] = col.Value(rec)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Headers returns the column headers in order.
func (e *Exporter[T]) Headers() []string {
	h := make([]string, len(e.Columns))
	for i, col := range e.Columns {
		h[i] = col.Header
	}
	return h
}

// Export renders records in format.
func (e *Exporter[T]) Export(ctx context.Context, records []T, format listview.Format) (listview.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return listview.Artifact{}, err
	}
	return Render(e.Table(records), format, e.Basename)
}
