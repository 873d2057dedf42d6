package catalog

import (
	"strconv"

	"stockmaster/internal/export"
	"stockmaster/internal/importer"
	"stockmaster/internal/listview"
	"stockmaster/internal/models"
	"stockmaster/internal/store"
)

var customerColumns = []export.Column[models.Customer]{
	{Header: "ID", Value: func(c models.Customer) string { return strconv.FormatInt(c.ID, 10) }},
	{Header: "Name", Value: func(c models.Customer) string { return c.Name }},
	{Header: "Email", Value: func(c models.Customer) string { return c.Email }},
	{Header: "Phone", Value: func(c models.Customer) string { return c.Phone }},
	{Header: "City", Value: func(c models.Customer) string { return c.City }},
	{Header: "Country", Value: func(c models.Customer) string { return c.Country }},
	{Header: "Address", Value: func(c models.Customer) string { return c.Address }},
	{Header: "Tax Number", Value: func(c models.Customer) string { return c.TaxNumber }},
	{Header: "Created At", Value: func(c models.Customer) string { return c.CreatedAt }},
}

// NewCustomers returns the customers screen. Views open sorted by id descending
// with pageSize rows per page.
func NewCustomers(deps Deps, pageSize int, pageSizes []int) *Screen[models.Customer] {
	return NewScreen(deps, Config[models.Customer]{
		Resource: "customers",
		Title:    "Customers",
		Table:    store.NewCustomers(deps.DB),
		Options: listview.Options{
			Orderable:        []string{"id", "name", "email", "phone", "city", "country", "created_at"},
			DefaultSort:      "id",
			DefaultDirection: listview.Desc,
			PageSize:         pageSize,
			PageSizes:        pageSizes,
			Filterable:       []string{store.TrashedFilter, "country", "city"},
		},
		Columns: customerColumns,
		Import:  importer.CustomerSpec,
		IDOf:    func(c models.Customer) int64 { return c.ID },
	})
}
