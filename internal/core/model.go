// Package core holds the pure order-editing domain: pricing resolution,
// line reconciliation, and the validation rules that gate submission.
// Nothing in this package performs I/O; SQL catalogs and the Service Layer
// are collaborators injected through small interfaces.
package core

import "github.com/shopspring/decimal"

// moneyPlaces is the scale every monetary amount is rounded to.
// MarginPlaces is the scale for margin percentages, which SAP stores whole.
const (
	moneyPlaces  = 2
	marginPlaces = 0
)

// RoundMoney applies the single rounding policy for monetary amounts:
// banker's rounding (half-even) to two decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(moneyPlaces)
}

// RoundMargin rounds a margin percentage to a whole number, half-even.
func RoundMargin(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(marginPlaces)
}

// Customer is a business partner row from OCRD joined with its price list.
// It is re-selected wholesale when the user changes customer; Margin is a
// customer-level annotation carried onto lines, never a price input.
type Customer struct {
	CardCode  string          `json:"cardCode"`
	Name      string          `json:"name"`
	PriceList int             `json:"priceList"`
	Margin    decimal.Decimal `json:"margin"`
}

// Item is read-only reference data from OITM.
type Item struct {
	ItemCode      string `json:"itemCode"`
	Name          string `json:"name"`
	WarehouseCode string `json:"warehouseCode"`
}

// Line is a locally editable order line. RemoteLineNum is set only for
// lines that originated from a fetched SAP order; nil marks the line as new.
type Line struct {
	ItemCode      string           `json:"itemCode"`
	Name          string           `json:"name,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	Margin        *decimal.Decimal `json:"margin,omitempty"`
	WarehouseCode string           `json:"warehouseCode,omitempty"`
	RemoteLineNum *int             `json:"remoteLineNum,omitempty"`

	// PriceStale marks a line whose reprice lookup failed; the line keeps
	// its prior price and the caller must surface the failure.
	PriceStale bool `json:"priceStale,omitempty"`
	// LowConfidence marks a line whose catalog price row exists but is zero.
	LowConfidence bool `json:"lowConfidence,omitempty"`
}

// IsNew reports whether the line has no remote counterpart yet.
func (l Line) IsNew() bool { return l.RemoteLineNum == nil }

// LineTotal returns quantity × unit price under the rounding policy.
func (l Line) LineTotal() decimal.Decimal {
	return RoundMoney(l.Quantity.Mul(l.UnitPrice))
}

// RemoteLine is one DocumentLines entry of a fetched SAP sales order.
// LineNum is the stable key lines are matched on; it is assigned by the
// client only when renumbering a reconciled sequence.
type RemoteLine struct {
	LineNum       int             `json:"lineNum"`
	ItemCode      string          `json:"itemCode"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	WarehouseCode string          `json:"warehouseCode,omitempty"`
}

// RemoteOrder is the fetched state of an SAP sales order. DocTotal and
// VatSum are server-computed aggregates: they are read for display and must
// never travel back on an edit.
type RemoteOrder struct {
	DocEntry int             `json:"docEntry"`
	DocNum   int             `json:"docNum"`
	CardCode string          `json:"cardCode"`
	Comments string          `json:"comments"`
	Series   int             `json:"series"`
	DocTotal decimal.Decimal `json:"docTotal"`
	VatSum   decimal.Decimal `json:"vatSum"`
	Lines    []RemoteLine    `json:"lines"`
}

// DraftOrder is the outbound unit for a brand-new order.
type DraftOrder struct {
	CardCode string `json:"cardCode"`
	Comments string `json:"comments"`
	User     string `json:"user"`
	Series   int    `json:"series"`
	Lines    []Line `json:"lines"`
}

// Total sums the line totals of a draft.
func (d DraftOrder) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range d.Lines {
		sum = sum.Add(l.LineTotal())
	}
	return RoundMoney(sum)
}
