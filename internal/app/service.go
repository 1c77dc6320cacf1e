package app

import (
	"context"

	"github.com/shopspring/decimal"

	"sap-orders/internal/catalog"
	"sap-orders/internal/core"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples HTTP handling from the order workflows; implementations contain
// no response writing or status-code logic of any kind.
type ApplicationService interface {
	// Authenticate verifies a user's web password and returns their identity.
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)

	// ChangePassword verifies the old web password and stores a new one.
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error

	// SearchItems returns sellable items matching the search term.
	SearchItems(ctx context.Context, search string) ([]core.Item, error)

	// SearchCustomers returns customers matching the search term, each with
	// their price list and margin annotation.
	SearchCustomers(ctx context.Context, search string) ([]core.Customer, error)

	// ItemPrice resolves one item's price under a price list. A missing
	// price is an explicit error, and a zero price is flagged.
	ItemPrice(ctx context.Context, itemCode string, priceList int) (core.ResolvedPrice, error)

	// ItemMargin computes the selling margin of an item at a given price.
	ItemMargin(ctx context.Context, itemCode string, price decimal.Decimal) (decimal.Decimal, error)

	// CreateOrder validates a draft and posts it to the Service Layer.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderCreatedResult, error)

	// ListOrders returns the recent web-entered orders of one user.
	ListOrders(ctx context.Context, userID string) ([]catalog.OrderSummary, error)

	// OrderDetails returns the display projection of an order by DocNum.
	OrderDetails(ctx context.Context, docNum int) ([]catalog.OrderDetail, error)

	// OrderLines returns the current remote line set of an order, the input
	// the edit screen reconciles against.
	OrderLines(ctx context.Context, docEntry int) ([]core.RemoteLine, error)

	// EditOrder reconciles the submitted local lines against the order's
	// current remote state and submits the minimal mutation.
	EditOrder(ctx context.Context, req EditOrderRequest) (*EditOrderResult, error)

	// CloseOrder performs the terminal close transition on an order.
	CloseOrder(ctx context.Context, docEntry int) error

	// Reprice re-derives every line's price after a customer change, with
	// per-line failure isolation.
	Reprice(ctx context.Context, req RepriceRequest) (*RepriceResult, error)

	// LoadItems turns a pasted column of item codes into priced lines.
	LoadItems(ctx context.Context, req LoadItemsRequest) (*RepriceResult, error)

	// ExportOrder renders an order as a spreadsheet.
	ExportOrder(ctx context.Context, docNum int) ([]byte, string, error)
}

// AuthResult is a successful authentication.
type AuthResult struct {
	Username string `json:"username"`
}

// CreateOrderRequest is the input for creating a new sales order.
type CreateOrderRequest struct {
	CardCode string      `json:"cardCode"`
	Comments string      `json:"comments"`
	User     string      `json:"user"`
	Series   int         `json:"series"`
	Lines    []core.Line `json:"items"`
}

// OrderCreatedResult reports the identifiers SAP assigned to a new order.
type OrderCreatedResult struct {
	DocEntry int `json:"sapOrderId"`
	DocNum   int `json:"docNum"`
}

// EditOrderRequest carries the locally edited line list of one order.
type EditOrderRequest struct {
	DocEntry int         `json:"docEntry"`
	Comments string      `json:"comments"`
	Lines    []core.Line `json:"items"`
}

// EditOrderResult summarizes the mutation an edit applied.
type EditOrderResult struct {
	DocEntry int `json:"docEntry"`
	Deleted  int `json:"deleted"`
	Updated  int `json:"updated"`
	Appended int `json:"appended"`
	Lines    int `json:"lines"`
}

// RepriceRequest asks for a batch reprice of lines under a customer's list.
type RepriceRequest struct {
	CardCode string      `json:"cardCode"`
	Lines    []core.Line `json:"items"`
}

// LoadItemsRequest is the bulk item-code entry input.
type LoadItemsRequest struct {
	CardCode  string   `json:"cardCode"`
	ItemCodes []string `json:"itemCodes"`
}

// RepriceResult returns repriced lines together with the per-line issues
// that must be shown before the user may proceed to submission.
type RepriceResult struct {
	Lines  []core.Line      `json:"items"`
	Issues []core.LineIssue `json:"issues,omitempty"`
}
