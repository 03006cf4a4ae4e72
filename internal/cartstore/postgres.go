package cartstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hushimx/hostservice-cart/internal/cart"
)

// Postgres persists carts in two tables: one row per cart keyed by the
// storage key, and one row per line item ordered by position. Save rewrites
// the item rows wholesale inside a transaction, so every write is a full
// overwrite of the record, matching the store contract.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Load(ctx context.Context, key string) (*cart.Cart, error) {
	const cartQuery = `SELECT location_id, vendor_id FROM carts WHERE storage_key = $1`

	var c cart.Cart
	err := p.db.QueryRowContext(ctx, cartQuery, key).Scan(&c.Identity.LocationID, &c.Identity.VendorID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT product_id, name, unit_price, image, quantity FROM cart_items WHERE storage_key = $1 ORDER BY position`, key)
	if err != nil {
		return nil, fmt.Errorf("load cart items %s: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.LineItem
		var image sql.NullString
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &image, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		it.Image = image.String
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return &c, nil
}

func (p *Postgres) Save(ctx context.Context, key string, c *cart.Cart) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertCartSQL = `
INSERT INTO carts (storage_key, location_id, vendor_id, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (storage_key) DO UPDATE
SET updated_at = NOW()
`
	if _, err = tx.ExecContext(ctx, upsertCartSQL, key, c.Identity.LocationID, c.Identity.VendorID); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE storage_key = $1`, key); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	if len(c.Items) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx,
			`INSERT INTO cart_items (id, storage_key, position, product_id, name, unit_price, image, quantity) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
		if prepErr != nil {
			err = fmt.Errorf("prepare insert: %w", prepErr)
			return err
		}
		defer stmt.Close()

		for i, it := range c.Items {
			image := sql.NullString{String: it.Image, Valid: it.Image != ""}
			if _, err = stmt.ExecContext(ctx, uuid.NewString(), key, i, it.ProductID, it.Name, it.UnitPrice, image, it.Quantity); err != nil {
				return fmt.Errorf("insert cart item %s: %w", it.ProductID, err)
			}
		}
	}

	err = tx.Commit()
	return err
}
