// Package importer loads catalog records from uploaded spreadsheets. A file is
// imported whole or not at all.
package importer

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockmaster/internal/export"
	"stockmaster/internal/listview"
	"stockmaster/internal/store"
	"stockmaster/internal/validation"
)

// Row is one data row keyed by lower-cased header.
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the trimmed value under header, or "".
func (r Row) Get(header string) string {
	return strings.TrimSpace(r.values[strings.ToLower(header)])
}

// Mapper converts a row into a record, adding problems to ve.
type Mapper[T any] func(row Row, ve *validation.ValidationErrors) T

// Spec describes the import file layout for one record type.
type Spec[T any] struct {
	Resource string
	Headers  []string
	Required []string
	// NewMapper is called once per import so mappers can preload lookups.
	NewMapper func(ctx context.Context, db *sql.DB) (Mapper[T], error)
}

// Importer is a listview.Importer for one table.
type Importer[T any] struct {
	db       *sql.DB
	table    *store.Table[T]
	spec     Spec[T]
	maxBytes int64
}

// New returns an importer writing into table. maxBytes bounds the upload size; 0 disables the bound.
func New[T any](table *store.Table[T], spec Spec[T], maxBytes int64) *Importer[T] {
	return &Importer[T]{db: table.DB(), table: table, spec: spec, maxBytes: maxBytes}
}

// Import parses r as an .xlsx or .csv file named filename and inserts every row
// in one transaction. Any invalid row rejects the whole file.
func (im *Importer[T]) Import(ctx context.Context, r io.Reader, filename string) (listview.ImportReport, error) {
	const op = "import"

	limit := im.maxBytes
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return listview.ImportReport{}, fmt.Errorf("read upload: %w", err)
	}

	ve := &validation.ValidationErrors{}
	validation.ValidateUpload(ve, filename, int64(len(data)), limit)
	if ve.HasErrors() {
		return listview.ImportReport{}, listview.Invalid(op, ve)
	}

	records, err := readRecords(data, filename)
	if err != nil {
		ve.Add("import_file", err.Error())
		return listview.ImportReport{}, listview.Invalid(op, ve)
	}
	rows, err := im.rows(records)
	if err != nil {
		ve.Add("import_file", err.Error())
		return listview.ImportReport{}, listview.Invalid(op, ve)
	}

	mapRow, err := im.spec.NewMapper(ctx, im.db)
	if err != nil {
		return listview.ImportReport{}, fmt.Errorf("prepare %s import: %w", im.spec.Resource, err)
	}
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		rowVE := &validation.ValidationErrors{}
		item := mapRow(row, rowVE)
		ve.Merge(fmt.Sprintf("row %d: ", row.Line), rowVE)
		items = append(items, item)
	}
	if ve.HasErrors() {
		return listview.ImportReport{}, listview.Invalid(op, ve)
	}

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return listview.ImportReport{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for i, item := range items {
		if _, err := im.table.Insert(ctx, tx, item); err != nil {
			return listview.ImportReport{}, fmt.Errorf("row %d: %w", rows[i].Line, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return listview.ImportReport{}, fmt.Errorf("commit import: %w", err)
	}
	return listview.ImportReport{Rows: len(rows), Inserted: len(items)}, nil
}

// Sample renders an empty import template carrying the expected headers.
func (im *Importer[T]) Sample(format listview.Format) (listview.Artifact, error) {
	if format == "" {
		format = listview.FormatXLSX
	}
	if format == listview.FormatPDF {
		return listview.Artifact{}, listview.Invalid("sample", errors.New("import templates are xlsx or csv"))
	}
	return export.Render(export.Table{Title: im.spec.Resource, Headers: im.spec.Headers}, format, im.spec.Resource+"_import_sample")
}

// Headers returns the template headers.
func (im *Importer[T]) Headers() []string { return im.spec.Headers }

func (im *Importer[T]) rows(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}
	header := make([]string, len(records[0]))
	present := make(map[string]bool, len(header))
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		header[i] = h
		present[h] = true
	}
	var missing []string
	for _, req := range im.spec.Required {
		if !present[strings.ToLower(req)] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing column(s): %s", strings.Join(missing, ", "))
	}

	var rows []Row
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		values := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) && h != "" {
				values[h] = rec[j]
			}
		}
		// Line numbers are 1-based and count the header.
		rows = append(rows, Row{Line: i + 2, values: values})
	}
	if len(rows) == 0 {
		return nil, errors.New("file contains no data rows")
	}
	return rows, nil
}

func readRecords(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("not a valid xlsx file: %v", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		return f.GetRows(sheets[0])
	case ".csv":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		records, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("not a valid csv file: %v", err)
		}
		return records, nil
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
