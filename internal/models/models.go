package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page,omitempty"`
	Limit      int `json:"limit,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

type Customer struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Address   string  `json:"address"`
	TaxNumber string  `json:"tax_number"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Product struct {
	ID               int64   `json:"id"`
	CategoryID       int64   `json:"category_id"`
	CategoryName     string  `json:"category_name"`
	Name             string  `json:"name"`
	Code             string  `json:"code"`
	BarcodeSymbology string  `json:"barcode_symbology"`
	Unit             string  `json:"unit"`
	Quantity         int     `json:"quantity"`
	Cost             float64 `json:"cost"`
	Price            float64 `json:"price"`
	StockAlert       int     `json:"stock_alert"`
	TaxAmount        float64 `json:"tax_amount"`
	TaxType          string  `json:"tax_type"`
	Note             string  `json:"note"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// LowStock reports whether the quantity is at or below the alert level.
func (p Product) LowStock() bool {
	return p.StockAlert > 0 && p.Quantity <= p.StockAlert
}

type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
}

type AuditEntry struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}
