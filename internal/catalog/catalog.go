package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"sap-orders/internal/core"
)

// defaultWarehouse is stamped onto items that carry no warehouse of their
// own; it matches the branch every web order ships from.
const defaultWarehouse = "001"

// Store serves catalog reads from the SAP company schema.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// likePattern converts the UI's `*` wildcard into SQL's `%`.
func likePattern(search string) string {
	return strings.ReplaceAll(search, "*", "%")
}

// SearchItems returns active items, optionally filtered by a name pattern or
// an exact item code.
func (s *Store) SearchItems(ctx context.Context, search string) ([]core.Item, error) {
	query := `SELECT "ItemCode", "ItemName" FROM "OITM" WHERE "frozenFor" = 'N'`
	var args []any
	if search != "" {
		query += ` AND (LOWER("ItemName") LIKE LOWER($1) OR LOWER("ItemCode") = LOWER($2))`
		args = append(args, likePattern(search), search)
	}
	query += ` ORDER BY "ItemName"`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var it core.Item
		if err := rows.Scan(&it.ItemCode, &it.Name); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.WarehouseCode = defaultWarehouse
		items = append(items, it)
	}
	return items, rows.Err()
}

// SearchCustomers returns customer business partners with their price list
// and the margin annotation derived from the price list name ("Lista 25").
func (s *Store) SearchCustomers(ctx context.Context, search string) ([]core.Customer, error) {
	query := `
		SELECT OCRD."CardCode", OCRD."CardName", OCRD."ListNum",
		       REPLACE(OPLN."ListName", 'Lista', '') AS "Margen"
		FROM "OCRD" OCRD
		JOIN "OPLN" OPLN ON OCRD."ListNum" = OPLN."ListNum"
		WHERE OCRD."CardType" = 'C'`
	var args []any
	if search != "" {
		query += ` AND (LOWER(OCRD."CardName") LIKE LOWER($1) OR LOWER(OCRD."CardCode") = LOWER($2))`
		args = append(args, likePattern(search), search)
	}
	query += ` ORDER BY OCRD."CardName"`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []core.Customer
	for rows.Next() {
		var c core.Customer
		var marginText string
		if err := rows.Scan(&c.CardCode, &c.Name, &c.PriceList, &marginText); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.Margin = parseListMargin(marginText)
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// parseListMargin extracts the numeric margin a price list name encodes.
// The margin is a display annotation, so an unparseable name degrades to
// zero rather than failing the customer lookup.
func parseListMargin(text string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Customer returns one business partner by card code.
func (s *Store) Customer(ctx context.Context, cardCode string) (core.Customer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT OCRD."CardCode", OCRD."CardName", OCRD."ListNum",
		       REPLACE(OPLN."ListName", 'Lista', '') AS "Margen"
		FROM "OCRD" OCRD
		JOIN "OPLN" OPLN ON OCRD."ListNum" = OPLN."ListNum"
		WHERE OCRD."CardType" = 'C' AND OCRD."CardCode" = $1`, cardCode)

	var c core.Customer
	var marginText string
	if err := row.Scan(&c.CardCode, &c.Name, &c.PriceList, &marginText); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Customer{}, fmt.Errorf("customer %s not found", cardCode)
		}
		return core.Customer{}, fmt.Errorf("failed to fetch customer %s: %w", cardCode, err)
	}
	c.Margin = parseListMargin(marginText)
	return c, nil
}

// ItemPrice looks up the unit price of an item under a price list. It
// implements core.PriceSource: a missing row is ErrPriceNotFound, never a
// silent zero.
func (s *Store) ItemPrice(ctx context.Context, itemCode string, priceList int) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`SELECT "Price" FROM "ITM1" WHERE "ItemCode" = $1 AND "PriceList" = $2`,
		itemCode, priceList,
	).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("item %s has no price on list %d: %w", itemCode, priceList, core.ErrPriceNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to query price for %s: %w", itemCode, err)
	}
	return price, nil
}

// ItemMargin computes the selling-margin percentage of an item at the given
// price, against the warehouse average cost with a base price list fallback.
func (s *Store) ItemMargin(ctx context.Context, itemCode string, itemPrice decimal.Decimal) (decimal.Decimal, error) {
	const query = `
		SELECT (($1::numeric - (
			CASE COALESCE(B."WhsCode", '')
				WHEN $3 THEN (CASE COALESCE(P."Price", 0) WHEN 0 THEN B."AvgPrice" ELSE P."Price" END)
				ELSE (CASE COALESCE(B."AvgPrice", 0) WHEN 0 THEN P."Price" ELSE B."AvgPrice" END)
			END)) / (CASE WHEN COALESCE($1::numeric, 0) = 0 THEN 1 ELSE $1::numeric END)) * 100 AS "Margen"
		FROM "ITM1" P
		LEFT JOIN "OITW" B ON P."ItemCode" = B."ItemCode" AND B."WhsCode" = $3
		WHERE P."ItemCode" = $2 AND P."PriceList" = 1`

	var margin decimal.Decimal
	err := s.pool.QueryRow(ctx, query, itemPrice, itemCode, defaultWarehouse).Scan(&margin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("item %s has no cost basis: %w", itemCode, core.ErrPriceNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to compute margin for %s: %w", itemCode, err)
	}
	return core.RoundMargin(margin), nil
}
