package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"sap-orders/internal/auth"
	"sap-orders/internal/catalog"
	"sap-orders/internal/core"
	"sap-orders/internal/export"
	"sap-orders/internal/sap"
)

// ErrInvalidCredentials is returned for any login failure; callers must not
// leak which part of the check failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationFailure aggregates the per-field problems that blocked a
// submission before any network call.
type ValidationFailure struct {
	Problems []error
}

func (e *ValidationFailure) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e.Problems[0], len(e.Problems)-1)
}

type appService struct {
	store    *catalog.Store
	sapc     *sap.Client
	resolver *core.Resolver
	aesKey   string
}

// NewAppService wires the catalog store, Service Layer client, and pricing
// resolver into an ApplicationService.
func NewAppService(store *catalog.Store, sapc *sap.Client, resolver *core.Resolver, aesKey string) ApplicationService {
	return &appService{store: store, sapc: sapc, resolver: resolver, aesKey: aesKey}
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func (s *appService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	creds, err := s.store.UserCredentials(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	stored, err := auth.DecryptPassword(creds.EncryptedPassword, s.aesKey)
	if err != nil || stored != password {
		return nil, ErrInvalidCredentials
	}
	return &AuthResult{Username: creds.Username}, nil
}

func (s *appService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	creds, err := s.store.UserCredentials(ctx, username)
	if err != nil {
		return ErrInvalidCredentials
	}
	stored, err := auth.DecryptPassword(creds.EncryptedPassword, s.aesKey)
	if err != nil || stored != oldPassword {
		return ErrInvalidCredentials
	}

	encrypted, err := auth.EncryptPassword(newPassword, s.aesKey)
	if err != nil {
		return fmt.Errorf("encrypt new password: %w", err)
	}
	return s.store.UpdateWebPassword(ctx, username, encrypted)
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) SearchItems(ctx context.Context, search string) ([]core.Item, error) {
	return s.store.SearchItems(ctx, search)
}

func (s *appService) SearchCustomers(ctx context.Context, search string) ([]core.Customer, error) {
	return s.store.SearchCustomers(ctx, search)
}

func (s *appService) ItemPrice(ctx context.Context, itemCode string, priceList int) (core.ResolvedPrice, error) {
	return s.resolver.ResolvePrice(ctx, itemCode, priceList)
}

func (s *appService) ItemMargin(ctx context.Context, itemCode string, price decimal.Decimal) (decimal.Decimal, error) {
	return s.store.ItemMargin(ctx, itemCode, price)
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderCreatedResult, error) {
	draft := core.DraftOrder{
		CardCode: req.CardCode,
		Comments: req.Comments,
		User:     req.User,
		Series:   req.Series,
		Lines:    req.Lines,
	}
	if problems := core.ValidateDraft(draft); len(problems) > 0 {
		return nil, &ValidationFailure{Problems: problems}
	}

	docEntry, docNum, err := s.sapc.CreateOrder(ctx, draft)
	if err != nil {
		return nil, err
	}
	return &OrderCreatedResult{DocEntry: docEntry, DocNum: docNum}, nil
}

func (s *appService) ListOrders(ctx context.Context, userID string) ([]catalog.OrderSummary, error) {
	return s.store.ListOrders(ctx, userID)
}

func (s *appService) OrderDetails(ctx context.Context, docNum int) ([]catalog.OrderDetail, error) {
	return s.store.OrderDetails(ctx, docNum)
}

func (s *appService) OrderLines(ctx context.Context, docEntry int) ([]core.RemoteLine, error) {
	order, err := s.sapc.FetchOrder(ctx, docEntry)
	if err != nil {
		return nil, err
	}
	return order.Lines, nil
}

// EditOrder is the reconciliation workflow: validate locally, fetch the
// order's current remote state, diff, and submit the rebuilt line sequence.
// Fetch and submit share one Service Layer session so the diff is applied
// against the same state it was computed from, as far as the server allows;
// there is no transaction boundary here and a concurrent editor can still
// win, which surfaces as a remote error.
func (s *appService) EditOrder(ctx context.Context, req EditOrderRequest) (*EditOrderResult, error) {
	if problems := core.ValidateLines(req.Lines); len(problems) > 0 {
		return nil, &ValidationFailure{Problems: problems}
	}

	var result EditOrderResult
	err := s.sapc.FetchAndUpdate(ctx, req.DocEntry, func(order core.RemoteOrder) (core.OutboundOrder, error) {
		rec := core.Reconcile(order.Lines, req.Lines)
		if req.Comments != "" {
			order.Comments = req.Comments
		}
		out, err := core.BuildOrderUpdate(order, rec)
		if err != nil {
			return core.OutboundOrder{}, err
		}
		result = EditOrderResult{
			DocEntry: order.DocEntry,
			Deleted:  len(rec.ToDelete),
			Updated:  len(rec.ToUpdate),
			Appended: len(rec.ToAppend),
			Lines:    len(rec.FinalSequence),
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *appService) CloseOrder(ctx context.Context, docEntry int) error {
	return s.sapc.CloseOrder(ctx, docEntry)
}

// ── Pricing ──────────────────────────────────────────────────────────────────

func (s *appService) Reprice(ctx context.Context, req RepriceRequest) (*RepriceResult, error) {
	customer, err := s.store.Customer(ctx, req.CardCode)
	if err != nil {
		return nil, err
	}
	lines, issues := s.resolver.RepriceAll(ctx, req.Lines, customer)
	return &RepriceResult{Lines: lines, Issues: issues}, nil
}

func (s *appService) LoadItems(ctx context.Context, req LoadItemsRequest) (*RepriceResult, error) {
	customer, err := s.store.Customer(ctx, req.CardCode)
	if err != nil {
		return nil, err
	}
	lines, issues := s.resolver.LoadLines(ctx, req.ItemCodes, customer)
	return &RepriceResult{Lines: lines, Issues: issues}, nil
}

// ── Export ───────────────────────────────────────────────────────────────────

func (s *appService) ExportOrder(ctx context.Context, docNum int) ([]byte, string, error) {
	details, err := s.store.OrderDetails(ctx, docNum)
	if err != nil {
		return nil, "", err
	}
	if len(details) == 0 {
		return nil, "", fmt.Errorf("order %d not found", docNum)
	}
	data, err := export.OrderWorkbook(details)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("orden-%d.xlsx", docNum), nil
}
