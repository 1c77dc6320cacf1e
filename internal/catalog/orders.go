package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// OrderSummary is one row of the web-entered order history.
type OrderSummary struct {
	CardCode     string    `json:"cardCode"`
	CustomerName string    `json:"customerName"`
	DocDate      time.Time `json:"date"`
	DocNum       int       `json:"docNum"`
	DocEntry     int       `json:"docEntry"`
	DocStatus    string    `json:"docStatus"`
}

// OrderDetail is the print/display projection of one order line joined with
// its partner, salesperson, and payment terms. TotalBeforeTax, VatSum and
// DocTotal come straight from the server and are display-only.
type OrderDetail struct {
	DocEntry       int             `json:"docEntry"`
	DocNum         int             `json:"docNum"`
	DocDate        time.Time       `json:"docDate"`
	CardCode       string          `json:"cardCode"`
	CardName       string          `json:"cardName"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	TaxID          string          `json:"taxId"`
	Salesperson    string          `json:"salesperson"`
	PaymentTerms   string          `json:"paymentTerms"`
	SeriesName     string          `json:"series"`
	Comments       string          `json:"comments"`
	EnteredBy      string          `json:"enteredBy"`
	ItemCode       string          `json:"itemCode"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Margin         decimal.Decimal `json:"margin"`
	VatPercent     decimal.Decimal `json:"vatPercent"`
	LineTotal      decimal.Decimal `json:"total"`
	TotalBeforeTax decimal.Decimal `json:"totalBeforeTax"`
	VatSum         decimal.Decimal `json:"vatSum"`
	DocTotal       decimal.Decimal `json:"docTotal"`
}

// webOrdersLimit caps the history listing the way the original screen did.
const webOrdersLimit = 20

// ListOrders returns the most recent orders this backend created for the
// given SAP user.
func (s *Store) ListOrders(ctx context.Context, userID string) ([]OrderSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT "CardCode", "CardName", "DocDate", "DocNum", "DocEntry", "DocStatus"
		FROM "ORDR"
		WHERE "U_RL_Origen" = 'WEBAPP' AND "U_RL_Usuario" = $1
		ORDER BY "DocDate" DESC
		LIMIT $2`, userID, webOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []OrderSummary
	for rows.Next() {
		var o OrderSummary
		if err := rows.Scan(&o.CardCode, &o.CustomerName, &o.DocDate, &o.DocNum, &o.DocEntry, &o.DocStatus); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// OrderDetails returns the full line-level projection of one order by its
// document number, priced under the partner's own price list.
func (s *Store) OrderDetails(ctx context.Context, docNum int) ([]OrderDetail, error) {
	const query = `
		SELECT ORDR."DocEntry", ORDR."DocNum", ORDR."DocDate",
		       ORDR."CardCode", ORDR."CardName", OCRD."Address", OCRD."City",
		       OCRD."Phone1", OCRD."E_Mail", ORDR."LicTradNum",
		       OSLP."SlpName", COALESCE(OCTG."PymntGroup", ''),
		       CASE WHEN ORDR."Series" = 13 THEN 'PediClie'
		            WHEN ORDR."Series" = 83 THEN 'Cotiza'
		            ELSE 'NA' END AS "SeriesName",
		       ORDR."Comments", COALESCE(OUSR."U_NAME", ''),
		       RDR1."ItemCode", RDR1."Dscription", RDR1."Quantity",
		       ITM1."Price", COALESCE(RDR1."U_RL_Margen", 0), RDR1."VatPrcnt",
		       (ORDR."DocTotal" - ORDR."VatSum") AS "TotalBeforeTax",
		       ORDR."VatSum", ORDR."DocTotal"
		FROM "RDR1" RDR1
		JOIN "ORDR" ORDR ON ORDR."DocEntry" = RDR1."DocEntry"
		JOIN "OCRD" OCRD ON OCRD."CardCode" = ORDR."CardCode" AND OCRD."CardType" = 'C'
		JOIN "ITM1" ITM1 ON ITM1."ItemCode" = RDR1."ItemCode" AND ITM1."PriceList" = OCRD."ListNum"
		JOIN "OSLP" OSLP ON OSLP."SlpCode" = RDR1."SlpCode"
		LEFT JOIN "OCTG" OCTG ON OCTG."GroupNum" = ORDR."GroupNum"
		LEFT JOIN "OUSR" OUSR ON OUSR."USER_CODE" = ORDR."U_RL_Usuario"
		WHERE ORDR."DocNum" = $1
		ORDER BY RDR1."LineNum"`

	rows, err := s.pool.Query(ctx, query, docNum)
	if err != nil {
		return nil, fmt.Errorf("failed to query order details: %w", err)
	}
	defer rows.Close()

	var details []OrderDetail
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(
			&d.DocEntry, &d.DocNum, &d.DocDate,
			&d.CardCode, &d.CardName, &d.Address, &d.City,
			&d.Phone, &d.Email, &d.TaxID,
			&d.Salesperson, &d.PaymentTerms, &d.SeriesName,
			&d.Comments, &d.EnteredBy,
			&d.ItemCode, &d.Description, &d.Quantity,
			&d.Price, &d.Margin, &d.VatPercent,
			&d.TotalBeforeTax, &d.VatSum, &d.DocTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		d.LineTotal = d.Quantity.Mul(d.Price)
		details = append(details, d)
	}
	return details, rows.Err()
}

// WebCredentials is the stored login material of one SAP user.
type WebCredentials struct {
	Username          string
	EncryptedPassword string
}

// UserCredentials fetches the encrypted web password of a user.
func (s *Store) UserCredentials(ctx context.Context, username string) (WebCredentials, error) {
	var c WebCredentials
	err := s.pool.QueryRow(ctx,
		`SELECT "USER_CODE", "U_RL_ClaveWeb" FROM "OUSR" WHERE "USER_CODE" = $1`,
		username,
	).Scan(&c.Username, &c.EncryptedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WebCredentials{}, fmt.Errorf("user %s not found", username)
		}
		return WebCredentials{}, fmt.Errorf("failed to fetch credentials for %s: %w", username, err)
	}
	return c, nil
}

// UpdateWebPassword stores a freshly encrypted web password.
func (s *Store) UpdateWebPassword(ctx context.Context, username, encrypted string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE "OUSR" SET "U_RL_ClaveWeb" = $1 WHERE "USER_CODE" = $2`,
		encrypted, username,
	)
	if err != nil {
		return fmt.Errorf("failed to update password for %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", username)
	}
	return nil
}
