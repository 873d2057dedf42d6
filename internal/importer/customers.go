package importer

import (
	"context"
	"database/sql"

	"stockmaster/internal/models"
	"stockmaster/internal/validation"
)

// CustomerSpec is the customers import layout.
var CustomerSpec = Spec[models.Customer]{
	Resource: "customers",
	Headers:  []string{"name", "email", "phone", "city", "country", "address", "tax_number"},
	Required: []string{"name"},
	NewMapper: func(context.Context, *sql.DB) (Mapper[models.Customer], error) {
		return mapCustomer, nil
	},
}

func mapCustomer(row Row, ve *validation.ValidationErrors) models.Customer {
	c := models.Customer{
		Name:      row.Get("name"),
		Email:     row.Get("email"),
		Phone:     row.Get("phone"),
		City:      row.Get("city"),
		Country:   row.Get("country"),
		Address:   row.Get("address"),
		TaxNumber: row.Get("tax_number"),
	}
	validation.RequireField(ve, "name", c.Name)
	validation.ValidateEmail(ve, "email", c.Email)
	for field, v := range map[string]string{"name": c.Name, "email": c.Email, "phone": c.Phone, "city": c.City, "country": c.Country, "tax_number": c.TaxNumber} {
		validation.ValidateMaxLength(ve, field, v, validation.MaxStringLength)
	}
	validation.ValidateMaxLength(ve, "address", c.Address, validation.MaxTextLength)
	return c
}
