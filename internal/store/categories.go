package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stockmaster/internal/models"
)

// Categories lists every category ordered by name.
func Categories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, code, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryIndex maps lower-cased category codes and names to ids. Imports
// reference categories by either.
func CategoryIndex(ctx context.Context, db *sql.DB) (map[string]int64, error) {
	cats, err := Categories(ctx, db)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int64, len(cats)*2)
	for _, c := range cats {
		idx[strings.ToLower(c.Code)] = c.ID
		idx[strings.ToLower(c.Name)] = c.ID
	}
	return idx, nil
}
