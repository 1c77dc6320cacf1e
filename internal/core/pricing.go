package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrPriceNotFound signals that no price row exists for an (item, price list)
// pair. Callers surface it to the user; the resolver never substitutes zero.
var ErrPriceNotFound = errors.New("price not found")

// PriceSource is the catalog collaborator the resolver reads from.
// Implementations return ErrPriceNotFound (possibly wrapped) when the pair
// has no price row.
type PriceSource interface {
	ItemPrice(ctx context.Context, itemCode string, priceList int) (decimal.Decimal, error)
}

const (
	defaultLookupTimeout = 5 * time.Second
	maxConcurrentLookups = 8
)

// Resolver derives unit prices and margin annotations for order lines.
type Resolver struct {
	source        PriceSource
	lookupTimeout time.Duration
}

// NewResolver builds a Resolver over the given price source.
func NewResolver(source PriceSource) *Resolver {
	return &Resolver{source: source, lookupTimeout: defaultLookupTimeout}
}

// ResolvedPrice is a price lookup result. LowConfidence marks a genuine
// zero-price row: valid catalog data, but usually a data-entry gap the user
// should see flagged.
type ResolvedPrice struct {
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	LowConfidence bool            `json:"lowConfidence"`
}

// ResolvePrice looks up the unit price for an item under a price list.
func (r *Resolver) ResolvePrice(ctx context.Context, itemCode string, priceList int) (ResolvedPrice, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	price, err := r.source.ItemPrice(ctx, itemCode, priceList)
	if err != nil {
		return ResolvedPrice{}, fmt.Errorf("resolve price for %s on list %d: %w", itemCode, priceList, err)
	}
	return ResolvedPrice{UnitPrice: RoundMoney(price), LowConfidence: price.IsZero()}, nil
}

// ResolveAndAnnotate composes a price lookup with the customer's margin into
// a ready-to-use line: quantity 1, the customer's price list price, the
// customer margin rounded under the margin policy.
func (r *Resolver) ResolveAndAnnotate(ctx context.Context, item Item, customer Customer) (Line, error) {
	rp, err := r.ResolvePrice(ctx, item.ItemCode, customer.PriceList)
	if err != nil {
		return Line{}, err
	}
	margin := RoundMargin(customer.Margin)
	return Line{
		ItemCode:      item.ItemCode,
		Name:          item.Name,
		Quantity:      decimal.NewFromInt(1),
		UnitPrice:     rp.UnitPrice,
		Margin:        &margin,
		WarehouseCode: item.WarehouseCode,
		LowConfidence: rp.LowConfidence,
	}, nil
}

// LineIssue reports a per-line lookup failure from a batch operation.
type LineIssue struct {
	Index    int    `json:"index"`
	ItemCode string `json:"itemCode"`
	Err      error  `json:"-"`
	Message  string `json:"message"`
}

// RepriceAll re-derives every line's unit price after the customer (and so
// the price list) changed. Lookups run concurrently, each under its own
// timeout, and failures are isolated per line: a failed line keeps its prior
// price and is tagged PriceStale, and the rest of the batch proceeds.
//
// The returned issues slice is indexed independently of the lines; callers
// must block submission until they have shown the issues to the user.
func (r *Resolver) RepriceAll(ctx context.Context, lines []Line, customer Customer) ([]Line, []LineIssue) {
	out := make([]Line, len(lines))
	issues := make([]*LineIssue, len(lines))
	margin := RoundMargin(customer.Margin)

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentLookups)
	for i := range lines {
		i := i
		g.Go(func() error {
			l := lines[i]
			l.Margin = &margin
			rp, err := r.ResolvePrice(ctx, l.ItemCode, customer.PriceList)
			if err != nil {
				l.PriceStale = true
				issues[i] = &LineIssue{Index: i, ItemCode: l.ItemCode, Err: err, Message: err.Error()}
			} else {
				l.UnitPrice = rp.UnitPrice
				l.PriceStale = false
				l.LowConfidence = rp.LowConfidence
			}
			out[i] = l
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; isolation is the contract

	var flat []LineIssue
	for _, is := range issues {
		if is != nil {
			flat = append(flat, *is)
		}
	}
	return out, flat
}

// LoadLines resolves a pasted column of item codes into annotated lines,
// with the same per-line isolation as RepriceAll. Codes that cannot be
// priced still produce a line (zero price, PriceStale) so the user sees the
// full list they entered.
func (r *Resolver) LoadLines(ctx context.Context, codes []string, customer Customer) ([]Line, []LineIssue) {
	lines := make([]Line, 0, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		lines = append(lines, Line{ItemCode: code, Quantity: decimal.NewFromInt(1)})
	}
	return r.RepriceAll(ctx, lines, customer)
}
