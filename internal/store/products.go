package store

import (
	"database/sql"

	"stockmaster/internal/models"
)

// ProductSpec maps models.Product onto the products table joined with its category.
var ProductSpec = Spec[models.Product]{
	Resource: "products",
	Table:    "products",
	From:     "products p JOIN categories c ON c.id = p.category_id",
	Columns: "p.id, p.category_id, c.name, p.name, p.code, p.barcode_symbology, p.unit, p.quantity, p.cost, p.price, " +
		"p.stock_alert, p.tax_amount, p.tax_type, p.note, p.status, p.created_at, p.updated_at",
	ID:         "p.id",
	Searchable: []string{"p.name", "p.code", "p.note"},
	Orderable: map[string]string{
		"id":         "p.id",
		"name":       "p.name",
		"code":       "p.code",
		"category":   "c.name",
		"quantity":   "p.quantity",
		"cost":       "p.cost",
		"price":      "p.price",
		"created_at": "p.created_at",
	},
	Filters: map[string]string{"category_id": "p.category_id", "status": "p.status"},
	InsertColumns: []string{"category_id", "name", "code", "barcode_symbology", "unit", "quantity", "cost", "price",
		"stock_alert", "tax_amount", "tax_type", "note", "status"},
	Values: func(p models.Product) []any {
		return []any{p.CategoryID, p.Name, p.Code, p.BarcodeSymbology, p.Unit, p.Quantity, p.Cost, p.Price,
			p.StockAlert, p.TaxAmount, p.TaxType, p.Note, p.Status}
	},
	Scan: scanProduct,
}

func scanProduct(s RowScanner) (models.Product, error) {
	var p models.Product
	err := s.Scan(&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Code, &p.BarcodeSymbology, &p.Unit,
		&p.Quantity, &p.Cost, &p.Price, &p.StockAlert, &p.TaxAmount, &p.TaxType, &p.Note, &p.Status,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// NewProducts returns the products store.
func NewProducts(db *sql.DB) *Table[models.Product] {
	return NewTable(db, ProductSpec)
}
