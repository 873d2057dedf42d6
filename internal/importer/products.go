package importer

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"stockmaster/internal/models"
	"stockmaster/internal/store"
	"stockmaster/internal/validation"
)

// ProductSpec is the products import layout. Categories are referenced by code or name.
var ProductSpec = Spec[models.Product]{
	Resource: "products",
	Headers: []string{"name", "code", "category", "barcode_symbology", "unit", "quantity", "cost", "price",
		"stock_alert", "tax_amount", "tax_type", "note", "status"},
	Required:  []string{"name", "code", "category", "price"},
	NewMapper: newProductMapper,
}

func newProductMapper(ctx context.Context, db *sql.DB) (Mapper[models.Product], error) {
	categories, err := store.CategoryIndex(ctx, db)
	if err != nil {
		return nil, err
	}
	codes, err := existingProductCodes(ctx, db)
	if err != nil {
		return nil, err
	}

	return func(row Row, ve *validation.ValidationErrors) models.Product {
		p := models.Product{
			Name:             row.Get("name"),
			Code:             row.Get("code"),
			BarcodeSymbology: orDefault(row.Get("barcode_symbology"), "C128"),
			Unit:             orDefault(row.Get("unit"), "pcs"),
			TaxType:          orDefault(strings.ToLower(row.Get("tax_type")), "exclusive"),
			Note:             row.Get("note"),
			Status:           orDefault(strings.ToLower(row.Get("status")), "active"),
		}
		validation.RequireField(ve, "name", p.Name)
		validation.RequireField(ve, "code", p.Code)
		validation.ValidateMaxLength(ve, "name", p.Name, validation.MaxStringLength)
		validation.ValidateMaxLength(ve, "code", p.Code, validation.MaxStringLength)
		validation.ValidateMaxLength(ve, "note", p.Note, validation.MaxTextLength)

		cat := row.Get("category")
		if cat == "" {
			ve.Add("category", "is required")
		} else if id, ok := categories[strings.ToLower(cat)]; ok {
			p.CategoryID = id
		} else {
			ve.Add("category", fmt.Sprintf("unknown category %q", cat))
		}

		if p.Code != "" {
			key := strings.ToLower(p.Code)
			if codes[key] {
				ve.Add("code", fmt.Sprintf("%q is already in use", p.Code))
			}
			codes[key] = true
		}

		p.Quantity = parseInt(ve, "quantity", row.Get("quantity"))
		p.StockAlert = parseInt(ve, "stock_alert", row.Get("stock_alert"))
		p.Cost = parseFloat(ve, "cost", row.Get("cost"))
		p.Price = parseFloat(ve, "price", row.Get("price"))
		p.TaxAmount = parseFloat(ve, "tax_amount", row.Get("tax_amount"))

		validation.ValidateNonNegativeInt(ve, "quantity", p.Quantity)
		validation.ValidateMaxQuantity(ve, "quantity", p.Quantity)
		validation.ValidateNonNegativeInt(ve, "stock_alert", p.StockAlert)
		validation.ValidateNonNegativeFloat(ve, "cost", p.Cost)
		validation.ValidateNonNegativeFloat(ve, "price", p.Price)
		validation.ValidateMaxPrice(ve, "price", p.Price)
		validation.ValidateNonNegativeFloat(ve, "tax_amount", p.TaxAmount)
		validation.ValidateEnum(ve, "barcode_symbology", p.BarcodeSymbology, validation.ValidBarcodeSymbologies)
		validation.ValidateEnum(ve, "tax_type", p.TaxType, validation.ValidTaxTypes)
		validation.ValidateEnum(ve, "status", p.Status, validation.ValidProductStatuses)
		return p
	}, nil
}

func existingProductCodes(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT code FROM products")
	if err != nil {
		return nil, fmt.Errorf("load product codes: %w", err)
	}
	defer rows.Close()
	codes := map[string]bool{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes[strings.ToLower(code)] = true
	}
	return codes, rows.Err()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseInt(ve *validation.ValidationErrors, field, v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Spreadsheets often store whole numbers as 12.0.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int(f)) {
			ve.Add(field, "must be a whole number")
			return 0
		}
		return int(f)
	}
	return n
}

func parseFloat(ve *validation.ValidationErrors, field, v string) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		ve.Add(field, "must be a number")
		return 0
	}
	return f
}
