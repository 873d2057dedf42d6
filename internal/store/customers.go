package store

import (
	"database/sql"

	"stockmaster/internal/models"
)

// CustomerSpec maps models.Customer onto the customers table. Customers are soft-deleted.
var CustomerSpec = Spec[models.Customer]{
	Resource:   "customers",
	Table:      "customers",
	From:       "customers",
	Columns:    "id, name, email, phone, city, country, address, tax_number, created_at, updated_at, deleted_at",
	ID:         "id",
	SoftDelete: "deleted_at",
	Searchable: []string{"name", "email", "phone", "city", "country", "tax_number"},
	Orderable: map[string]string{
		"id":         "id",
		"name":       "name",
		"email":      "email",
		"phone":      "phone",
		"city":       "city",
		"country":    "country",
		"created_at": "created_at",
	},
	Filters:       map[string]string{"country": "country", "city": "city"},
	InsertColumns: []string{"name", "email", "phone", "city", "country", "address", "tax_number"},
	Values: func(c models.Customer) []any {
		return []any{c.Name, c.Email, c.Phone, c.City, c.Country, c.Address, c.TaxNumber}
	},
	Scan: scanCustomer,
}

func scanCustomer(s RowScanner) (models.Customer, error) {
	var c models.Customer
	var deleted sql.NullString
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.City, &c.Country, &c.Address, &c.TaxNumber,
		&c.CreatedAt, &c.UpdatedAt, &deleted)
	if deleted.Valid {
		c.DeletedAt = &deleted.String
	}
	return c, err
}

// NewCustomers returns the customers store.
func NewCustomers(db *sql.DB) *Table[models.Customer] {
	return NewTable(db, CustomerSpec)
}
