package export_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockmaster/internal/export"
	"stockmaster/internal/listview"
)

type item struct {
	code  string
	price float64
}

func newExporter() *export.Exporter[item] {
	return &export.Exporter[item]{
		Title:    "Products",
		Basename: "Products",
		Columns: []export.Column[item]{
			{Header: "Code", Value: func(i item) string { return i.code }},
			{Header: "Price", Value: func(i item) string { return fmt.Sprintf("%.2f", i.price) }},
		},
	}
}

func TestExporter_XLSX(t *testing.T) {
	art, err := newExporter().Export(context.Background(), []item{{"A-1", 2.5}, {"B-2", 10}}, listview.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "products.xlsx", art.Filename)
	assert.Equal(t, export.ContentTypeXLSX, art.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(art.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Products"}, f.GetSheetList())
	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Code", "Price"}, rows[0])
	assert.Equal(t, []string{"B-2", "10.00"}, rows[2])
}

func TestExcel_ManyColumns(t *testing.T) {
	headers := make([]string, 30)
	row := make([]string, 30)
	for i := range headers {
		headers[i] = fmt.Sprintf("H%d", i)
		row[i] = fmt.Sprintf("v%d", i)
	}
	data, err := export.Excel(export.Table{Title: "Wide: sheet/name", Headers: headers, Rows: [][]string{row}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetList()[0]
	v, err := f.GetCellValue(sheet, "AD2")
	require.NoError(t, err)
	assert.Equal(t, "v29", v)
}

func TestExporter_PDF(t *testing.T) {
	records := make([]item, 200)
	for i := range records {
		records[i] = item{code: strings.Repeat("X", i%40), price: float64(i)}
	}
	art, err := newExporter().Export(context.Background(), records, listview.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "products.pdf", art.Filename)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF")))
}

func TestExporter_CSV(t *testing.T) {
	art, err := newExporter().Export(context.Background(), []item{{"A,1", 1}}, listview.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Code,Price\n\"A,1\",1.00\n", string(art.Data))
}

func TestExporter_EmptyRecords(t *testing.T) {
	art, err := newExporter().Export(context.Background(), nil, listview.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Code,Price\n", string(art.Data))
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := export.Render(export.Table{}, listview.Format("docx"), "x")
	assert.ErrorIs(t, err, listview.ErrValidationFailed)
}
