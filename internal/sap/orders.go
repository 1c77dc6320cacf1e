package sap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"sap-orders/internal/core"
)

// Fixed costing dimensions stamped onto every web-entered line, and the UDF
// marking documents that originated here.
const (
	cogsCostingCode  = "2"
	costingCode2     = "2.1"
	originWebApp     = "WEBAPP"
	documentCurrency = "$"
)

// documentLine is the wire shape of one Orders DocumentLines entry.
// Quantities and prices go out as JSON numbers, which is what the Service
// Layer expects; decimals are converted at this boundary only.
type documentLine struct {
	LineNum         *int    `json:"LineNum,omitempty"`
	ItemCode        string  `json:"ItemCode"`
	Quantity        float64 `json:"Quantity"`
	UnitPrice       float64 `json:"UnitPrice"`
	WarehouseCode   string  `json:"WarehouseCode,omitempty"`
	COGSCostingCode string  `json:"COGSCostingCode,omitempty"`
	CostingCode2    string  `json:"CostingCode2,omitempty"`
}

// createOrderDocument is the POST Orders payload.
type createOrderDocument struct {
	TaxDate       string         `json:"TaxDate"`
	DocDueDate    string         `json:"DocDueDate"`
	CardCode      string         `json:"CardCode"`
	DocCurrency   string         `json:"DocCurrency"`
	Series        int            `json:"Series"`
	Rate          float64        `json:"Rate"`
	Comments      string         `json:"Comments"`
	Origin        string         `json:"U_RL_Origen"`
	User          string         `json:"U_RL_Usuario"`
	DocumentLines []documentLine `json:"DocumentLines"`
}

// updateOrderDocument is the PATCH Orders(docEntry) payload. It carries the
// full reconciled line collection — the Service Layer replaces DocumentLines
// wholesale, which is how removed lines are deleted — and intentionally has
// no aggregate fields (DocTotal, VatSum): those are server-computed.
type updateOrderDocument struct {
	Comments      string         `json:"Comments,omitempty"`
	DocumentLines []documentLine `json:"DocumentLines"`
}

// fetchedOrder is the GET Orders(docEntry) response subset we read.
type fetchedOrder struct {
	DocEntry      int            `json:"DocEntry"`
	DocNum        int            `json:"DocNum"`
	CardCode      string         `json:"CardCode"`
	Comments      string         `json:"Comments"`
	Series        int            `json:"Series"`
	DocTotal      float64        `json:"DocTotal"`
	VatSum        float64        `json:"VatSum"`
	DocumentLines []documentLine `json:"DocumentLines"`
}

type createOrderResponse struct {
	DocEntry int `json:"DocEntry"`
	DocNum   int `json:"DocNum"`
}

// sapDate renders a date the way the Service Layer document fields want it.
func sapDate(t time.Time) string {
	return t.Format("20060102")
}

// CreateOrder posts a new sales order and returns its DocEntry and DocNum.
func (c *Client) CreateOrder(ctx context.Context, draft core.DraftOrder) (docEntry, docNum int, err error) {
	s, err := c.login(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer c.logout(ctx, s)

	now := time.Now()
	doc := createOrderDocument{
		TaxDate:     sapDate(now),
		DocDueDate:  sapDate(now),
		CardCode:    draft.CardCode,
		DocCurrency: documentCurrency,
		Series:      draft.Series,
		Rate:        0.0,
		Comments:    draft.Comments,
		Origin:      originWebApp,
		User:        draft.User,
	}
	for _, l := range draft.Lines {
		doc.DocumentLines = append(doc.DocumentLines, documentLine{
			ItemCode:        l.ItemCode,
			Quantity:        l.Quantity.InexactFloat64(),
			UnitPrice:       l.UnitPrice.InexactFloat64(),
			WarehouseCode:   l.WarehouseCode,
			COGSCostingCode: cogsCostingCode,
			CostingCode2:    costingCode2,
		})
	}

	var resp createOrderResponse
	if err := c.do(ctx, s, http.MethodPost, "Orders", doc, &resp); err != nil {
		return 0, 0, fmt.Errorf("create order for %s: %w", draft.CardCode, err)
	}
	return resp.DocEntry, resp.DocNum, nil
}

// FetchOrder reads the current state of an order, lines included. The
// returned aggregates are display-only; they never travel back on an edit.
func (c *Client) FetchOrder(ctx context.Context, docEntry int) (core.RemoteOrder, error) {
	s, err := c.login(ctx)
	if err != nil {
		return core.RemoteOrder{}, err
	}
	defer c.logout(ctx, s)

	return c.fetchOrder(ctx, s, docEntry)
}

func (c *Client) fetchOrder(ctx context.Context, s session, docEntry int) (core.RemoteOrder, error) {
	path := fmt.Sprintf("Orders(%d)?$select=DocEntry,DocNum,CardCode,Comments,Series,DocTotal,VatSum,DocumentLines", docEntry)

	var doc fetchedOrder
	if err := c.do(ctx, s, http.MethodGet, path, nil, &doc); err != nil {
		return core.RemoteOrder{}, fmt.Errorf("fetch order %d: %w", docEntry, err)
	}

	order := core.RemoteOrder{
		DocEntry: doc.DocEntry,
		DocNum:   doc.DocNum,
		CardCode: doc.CardCode,
		Comments: doc.Comments,
		Series:   doc.Series,
		DocTotal: decimal.NewFromFloat(doc.DocTotal),
		VatSum:   decimal.NewFromFloat(doc.VatSum),
	}
	for _, l := range doc.DocumentLines {
		lineNum := 0
		if l.LineNum != nil {
			lineNum = *l.LineNum
		}
		order.Lines = append(order.Lines, core.RemoteLine{
			LineNum:       lineNum,
			ItemCode:      l.ItemCode,
			Quantity:      decimal.NewFromFloat(l.Quantity),
			Price:         decimal.NewFromFloat(l.UnitPrice),
			WarehouseCode: l.WarehouseCode,
		})
	}
	return order, nil
}

// UpdateOrder submits a reconciled line sequence as a PATCH.
//
// The Service Layer does not guarantee idempotency for this call: a retry
// after a timeout can double-apply an edit. That gap is documented here
// rather than papered over; callers decide their own retry stance.
func (c *Client) UpdateOrder(ctx context.Context, out core.OutboundOrder) error {
	s, err := c.login(ctx)
	if err != nil {
		return err
	}
	defer c.logout(ctx, s)

	return c.patchOrder(ctx, s, out)
}

// toDocumentLines converts a reconciled sequence to its wire shape.
func toDocumentLines(lines []core.RemoteLine) []documentLine {
	out := make([]documentLine, 0, len(lines))
	for _, l := range lines {
		ln := l.LineNum
		out = append(out, documentLine{
			LineNum:       &ln,
			ItemCode:      l.ItemCode,
			Quantity:      l.Quantity.InexactFloat64(),
			UnitPrice:     l.Price.InexactFloat64(),
			WarehouseCode: l.WarehouseCode,
		})
	}
	return out
}

func (c *Client) patchOrder(ctx context.Context, s session, out core.OutboundOrder) error {
	doc := updateOrderDocument{
		Comments:      out.Comments,
		DocumentLines: toDocumentLines(out.Lines),
	}
	path := fmt.Sprintf("Orders(%d)", out.DocEntry)
	if err := c.do(ctx, s, http.MethodPatch, path, doc, nil); err != nil {
		return fmt.Errorf("update order %d: %w", out.DocEntry, err)
	}
	return nil
}

// FetchAndUpdate runs a fetch and an update inside one session, for callers
// that already reconciled against a fresh fetch and want fewer logins.
func (c *Client) FetchAndUpdate(ctx context.Context, docEntry int, build func(core.RemoteOrder) (core.OutboundOrder, error)) error {
	s, err := c.login(ctx)
	if err != nil {
		return err
	}
	defer c.logout(ctx, s)

	order, err := c.fetchOrder(ctx, s, docEntry)
	if err != nil {
		return err
	}
	out, err := build(order)
	if err != nil {
		return err
	}
	return c.patchOrder(ctx, s, out)
}

// CloseOrder performs the terminal close transition. There is no reopen from
// this side.
func (c *Client) CloseOrder(ctx context.Context, docEntry int) error {
	s, err := c.login(ctx)
	if err != nil {
		return err
	}
	defer c.logout(ctx, s)

	path := fmt.Sprintf("Orders(%d)/Close", docEntry)
	if err := c.do(ctx, s, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("close order %d: %w", docEntry, err)
	}
	return nil
}
