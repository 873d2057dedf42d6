package catalog

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/export"
	"stockmaster/internal/importer"
	"stockmaster/internal/listview"
	"stockmaster/internal/models"
	"stockmaster/internal/response"
	"stockmaster/internal/store"
)

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

var productColumns = []export.Column[models.Product]{
	{Header: "ID", Value: func(p models.Product) string { return strconv.FormatInt(p.ID, 10) }},
	{Header: "Code", Value: func(p models.Product) string { return p.Code }},
	{Header: "Name", Value: func(p models.Product) string { return p.Name }},
	{Header: "Category", Value: func(p models.Product) string { return p.CategoryName }},
	{Header: "Unit", Value: func(p models.Product) string { return p.Unit }},
	{Header: "Quantity", Value: func(p models.Product) string { return strconv.Itoa(p.Quantity) }},
	{Header: "Cost", Value: func(p models.Product) string { return money(p.Cost) }},
	{Header: "Price", Value: func(p models.Product) string { return money(p.Price) }},
	{Header: "Stock Alert", Value: func(p models.Product) string { return strconv.Itoa(p.StockAlert) }},
	{Header: "Tax", Value: func(p models.Product) string { return money(p.TaxAmount) + " (" + p.TaxType + ")" }},
	{Header: "Status", Value: func(p models.Product) string { return p.Status }},
}

// NewProducts returns the products screen. channel is where "send to channel"
// notifications go.
func NewProducts(deps Deps, pageSize int, pageSizes []int, channel string) *Screen[models.Product] {
	s := NewScreen(deps, Config[models.Product]{
		Resource: "products",
		Title:    "Products",
		Table:    store.NewProducts(deps.DB),
		Options: listview.Options{
			Orderable:        []string{"id", "name", "code", "category", "quantity", "cost", "price", "created_at"},
			DefaultSort:      "id",
			DefaultDirection: listview.Desc,
			PageSize:         pageSize,
			PageSizes:        pageSizes,
			Filterable:       []string{"category_id", "status"},
		},
		Columns: productColumns,
		Import:  importer.ProductSpec,
		IDOf:    func(p models.Product) int64 { return p.ID },
	})
	s.extra = append(s.extra, func(r *gin.RouterGroup) {
		r.GET("/categories", s.categories)
		r.POST("/:id/notify", sendToChannel(s, channel))
	})
	return s
}

func (s *Screen[T]) categories(c *gin.Context) {
	if err := s.authorize(c, listview.ActionAccess); err != nil {
		response.Error(c, err)
		return
	}
	cats, err := store.Categories(c.Request.Context(), s.deps.DB)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cats)
}

// ProductMessage is the text sent to a channel for p.
func ProductMessage(p models.Product) string {
	return fmt.Sprintf("%s: %s", p.Name, money(p.Price))
}

// sendToChannel announces a product's name and price on channel.
func sendToChannel(s *Screen[models.Product], channel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := s.authorize(c, listview.ActionNotify); err != nil {
			response.Error(c, err)
			return
		}
		p, err := s.table.Get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		n := listview.Notification{
			Title:   p.Name,
			Message: ProductMessage(p),
			Kind:    "info",
			Channel: channel,
		}
		s.notify(c, n)
		s.audit(c, audit.ActionNotify, strconv.FormatInt(id, 10), fmt.Sprintf("Sent %s to %s", p.Name, channel))
		response.JSON(c, http.StatusAccepted, n)
	}
}
