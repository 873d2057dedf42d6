package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmaster/internal/db"
	"stockmaster/internal/listview"
	"stockmaster/internal/models"
	"stockmaster/internal/store"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, db.Seed(ctx, conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func seedCustomers(t *testing.T, customers *store.Table[models.Customer], n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		id, err := customers.Insert(context.Background(), nil, models.Customer{
			Name:    fmt.Sprintf("Customer %02d", i),
			Email:   fmt.Sprintf("c%02d@example.com", i),
			City:    []string{"Lyon", "Paris"}[i%2],
			Country: "France",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func query(sort string, dir listview.Direction, page, size int) listview.QuerySpec {
	return listview.QuerySpec{SortColumn: sort, SortDirection: dir, Page: page, PageSize: size}
}

func TestTable_PageOrderAndTotals(t *testing.T) {
	ctx := context.Background()
	customers := store.NewCustomers(setupDB(t))
	seedCustomers(t, customers, 23)

	p, err := customers.Page(ctx, query("id", listview.Desc, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, 23, p.TotalItems)
	assert.Equal(t, 3, p.TotalPages())
	require.Len(t, p.Items, 10)
	assert.Equal(t, "Customer 23", p.Items[0].Name)

	last, err := customers.Page(ctx, query("id", listview.Desc, 3, 10))
	require.NoError(t, err)
	assert.Len(t, last.Items, 3)
	assert.Equal(t, "Customer 01", last.Items[2].Name)

	past, err := customers.Page(ctx, query("id", listview.Desc, 9, 10))
	require.NoError(t, err)
	assert.NotNil(t, past.Items)
	assert.Empty(t, past.Items)
	assert.Equal(t, 23, past.TotalItems)
}

func TestTable_SearchAcrossColumns(t *testing.T) {
	ctx := context.Background()
	customers := store.NewCustomers(setupDB(t))
	seedCustomers(t, customers, 10)

	q := query("name", listview.Asc, 1, 100)
	q.Search = "c03@"
	p, err := customers.Page(ctx, q)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Customer 03", p.Items[0].Name)

	q.Search = "paris"
	n, err := customers.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// LIKE wildcards in the term are literal.
	q.Search = "%"
	n, err = customers.Count(ctx, q)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTable_RejectsUnknownSortAndFilter(t *testing.T) {
	ctx := context.Background()
	customers := store.NewCustomers(setupDB(t))

	_, err := customers.Page(ctx, query("password_hash", listview.Asc, 1, 10))
	assert.ErrorIs(t, err, listview.ErrValidationFailed)

	q := query("id", listview.Asc, 1, 10)
	q.Filters = map[string]string{"1=1 OR name": "x"}
	_, err = customers.Page(ctx, q)
	assert.ErrorIs(t, err, listview.ErrValidationFailed)
}

func TestTable_CheckFilter(t *testing.T) {
	customers := store.NewCustomers(setupDB(t))
	assert.NoError(t, customers.CheckFilter(store.TrashedFilter, "only"))
	assert.NoError(t, customers.CheckFilter(store.TrashedFilter, "with"))
	assert.Error(t, customers.CheckFilter(store.TrashedFilter, "bogus"))
	assert.NoError(t, customers.CheckFilter("country", "FR"))
	assert.Error(t, customers.CheckFilter("owner", "x"))
}

func TestTable_SoftDeleteRestoreForce(t *testing.T) {
	ctx := context.Background()
	customers := store.NewCustomers(setupDB(t))
	ids := seedCustomers(t, customers, 5)

	n, err := customers.Delete(ctx, ids[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = customers.Delete(ctx, ids[:1])
	require.NoError(t, err)
	assert.Zero(t, n, "already trashed rows are not deleted twice")

	live, err := customers.Existing(ctx, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[2:], live)

	q := query("id", listview.Asc, 1, 10)
	q.Filters = map[string]string{store.TrashedFilter: "only"}
	trashed, err := customers.MatchingIDs(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, ids[:2], trashed)

	require.NoError(t, customers.Restore(ctx, ids[0]))
	assert.ErrorIs(t, customers.Restore(ctx, ids[0]), listview.ErrNotFound)

	require.NoError(t, customers.ForceDelete(ctx, ids[1]))
	assert.ErrorIs(t, customers.ForceDelete(ctx, ids[1]), listview.ErrNotFound)

	_, err = customers.Get(ctx, ids[0])
	assert.NoError(t, err)
	_, err = customers.Get(ctx, ids[1])
	assert.ErrorIs(t, err, listview.ErrNotFound)
}

func TestTable_FindKeepsSelectionOrderAndSkipsMissing(t *testing.T) {
	ctx := context.Background()
	customers := store.NewCustomers(setupDB(t))
	ids := seedCustomers(t, customers, 4)

	got, err := customers.Find(ctx, []int64{ids[3], 999, ids[0]})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[3], got[0].ID)
	assert.Equal(t, ids[0], got[1].ID)

	empty, err := customers.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProducts_CategoryFilterAndJoin(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)
	products := store.NewProducts(conn)

	cats, err := store.Categories(ctx, conn)
	require.NoError(t, err)
	require.Len(t, cats, 3)

	for i, c := range cats {
		_, err := products.Insert(ctx, nil, models.Product{
			CategoryID: c.ID, Name: fmt.Sprintf("Item %d", i), Code: fmt.Sprintf("IT-%d", i),
			BarcodeSymbology: "C128", Unit: "pcs", Quantity: 5, Price: 9.5,
			TaxType: "exclusive", Status: "active",
		})
		require.NoError(t, err)
	}

	q := query("category", listview.Asc, 1, 25)
	q.Filters = map[string]string{"category_id": fmt.Sprint(cats[1].ID)}
	p, err := products.Page(ctx, q)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, cats[1].Name, p.Items[0].CategoryName)

	n, err := products.Delete(ctx, []int64{p.Items[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Error(t, products.Restore(ctx, p.Items[0].ID), "products are hard-deleted")

	idx, err := store.CategoryIndex(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, cats[0].ID, idx["ca_elc"], "categories are listed by name")
	assert.Equal(t, cats[2].ID, idx["office supplies"])
}
