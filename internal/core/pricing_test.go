package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sap-orders/internal/core"

	"github.com/shopspring/decimal"
)

// fakePriceSource serves prices from a map keyed by "itemCode/priceList".
type fakePriceSource struct {
	prices map[string]decimal.Decimal
	calls  int
}

func (f *fakePriceSource) ItemPrice(_ context.Context, itemCode string, priceList int) (decimal.Decimal, error) {
	f.calls++
	p, ok := f.prices[fmt.Sprintf("%s/%d", itemCode, priceList)]
	if !ok {
		return decimal.Zero, core.ErrPriceNotFound
	}
	return p, nil
}

func TestResolvePrice_NotFoundIsExplicit(t *testing.T) {
	r := core.NewResolver(&fakePriceSource{prices: map[string]decimal.Decimal{}})

	_, err := r.ResolvePrice(context.Background(), "A100", 2)
	if !errors.Is(err, core.ErrPriceNotFound) {
		t.Fatalf("expected ErrPriceNotFound, got %v", err)
	}
}

func TestResolvePrice_ZeroPriceIsLowConfidence(t *testing.T) {
	r := core.NewResolver(&fakePriceSource{prices: map[string]decimal.Decimal{
		"A100/1": decimal.Zero,
	}})

	rp, err := r.ResolvePrice(context.Background(), "A100", 1)
	if err != nil {
		t.Fatalf("ResolvePrice: %v", err)
	}
	if !rp.LowConfidence {
		t.Error("zero catalog price must be flagged low confidence, not passed silently")
	}
}

func TestResolveAndAnnotate(t *testing.T) {
	r := core.NewResolver(&fakePriceSource{prices: map[string]decimal.Decimal{
		"A100/1": dec("10.456"),
	}})
	customer := core.Customer{CardCode: "C0001", PriceList: 1, Margin: dec("25.4")}
	item := core.Item{ItemCode: "A100", Name: "Widget", WarehouseCode: "001"}

	line, err := r.ResolveAndAnnotate(context.Background(), item, customer)
	if err != nil {
		t.Fatalf("ResolveAndAnnotate: %v", err)
	}
	if !line.UnitPrice.Equal(dec("10.46")) {
		t.Errorf("unit price = %s, want 10.46 (half-even, 2 places)", line.UnitPrice)
	}
	if line.Margin == nil || !line.Margin.Equal(dec("25")) {
		t.Errorf("margin = %v, want 25 (whole number policy)", line.Margin)
	}
	if !line.Quantity.Equal(dec("1")) || line.WarehouseCode != "001" {
		t.Errorf("line defaults wrong: %+v", line)
	}
}

func TestRepriceAll_FailureIsolation(t *testing.T) {
	// Customer moves from list 1 to list 2. A100 has no entry under list 2;
	// B200 does. A100 keeps its prior price and is tagged stale, B200
	// updates, and neither outcome blocks the other.
	r := core.NewResolver(&fakePriceSource{prices: map[string]decimal.Decimal{
		"A100/1": dec("10"),
		"B200/2": dec("6.50"),
	}})
	customer := core.Customer{CardCode: "C0001", PriceList: 2, Margin: dec("30")}
	lines := []core.Line{
		{ItemCode: "A100", Quantity: dec("2"), UnitPrice: dec("10")},
		{ItemCode: "B200", Quantity: dec("1"), UnitPrice: dec("5")},
	}

	out, issues := r.RepriceAll(context.Background(), lines, customer)

	if len(out) != 2 {
		t.Fatalf("expected 2 lines back, got %d", len(out))
	}
	if !out[0].PriceStale {
		t.Error("A100 must be tagged stale after failed lookup")
	}
	if !out[0].UnitPrice.Equal(dec("10")) {
		t.Errorf("A100 must keep prior price 10, got %s", out[0].UnitPrice)
	}
	if out[1].PriceStale {
		t.Error("B200 wrongly tagged stale")
	}
	if !out[1].UnitPrice.Equal(dec("6.50")) {
		t.Errorf("B200 price = %s, want 6.50", out[1].UnitPrice)
	}
	if len(issues) != 1 || issues[0].ItemCode != "A100" || issues[0].Index != 0 {
		t.Fatalf("expected one issue for A100 at index 0, got %+v", issues)
	}
	if !errors.Is(issues[0].Err, core.ErrPriceNotFound) {
		t.Errorf("issue error = %v, want ErrPriceNotFound", issues[0].Err)
	}
}

func TestRepriceAll_AnnotatesMarginOnEveryLine(t *testing.T) {
	r := core.NewResolver(&fakePriceSource{prices: map[string]decimal.Decimal{
		"A100/3": dec("8"),
		"B200/3": dec("4"),
	}})
	customer := core.Customer{CardCode: "C0002", PriceList: 3, Margin: dec("15.6")}
	lines := []core.Line{
		{ItemCode: "A100", Quantity: dec("1")},
		{ItemCode: "B200", Quantity: dec("2")},
	}

	out, issues := r.RepriceAll(context.Background(), lines, customer)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
	for i, l := range out {
		if l.Margin == nil || !l.Margin.Equal(dec("16")) {
			t.Errorf("line %d margin = %v, want 16", i, l.Margin)
		}
	}
}

func TestLoadLines_SkipsBlanksAndIsolatesFailures(t *testing.T) {
	r := core.NewResolver(&fakePriceSource{prices: map[string]decimal.Decimal{
		"A100/1": dec("10"),
	}})
	customer := core.Customer{CardCode: "C0001", PriceList: 1}

	out, issues := r.LoadLines(context.Background(), []string{"A100", "", "NOPE"}, customer)

	if len(out) != 2 {
		t.Fatalf("expected 2 lines (blank skipped), got %d", len(out))
	}
	if out[0].PriceStale || !out[0].UnitPrice.Equal(dec("10")) {
		t.Errorf("A100 line wrong: %+v", out[0])
	}
	if !out[1].PriceStale {
		t.Error("unresolvable code must still yield a stale line the user can see")
	}
	if len(issues) != 1 || issues[0].ItemCode != "NOPE" {
		t.Fatalf("expected one issue for NOPE, got %+v", issues)
	}
}

func TestValidateLines(t *testing.T) {
	lines := []core.Line{
		{ItemCode: "A100", Quantity: dec("1"), UnitPrice: dec("10")},
		{ItemCode: "", Quantity: dec("-2"), UnitPrice: dec("-1")},
	}

	errs := core.ValidateLines(lines)
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d: %v", len(errs), errs)
	}
	var ve *core.ValidationError
	if !errors.As(errs[0], &ve) || ve.Line != 2 {
		t.Errorf("validation error should carry 1-based line index, got %+v", errs[0])
	}
}

func TestValidateDraft(t *testing.T) {
	errs := core.ValidateDraft(core.DraftOrder{})
	if len(errs) != 2 {
		t.Fatalf("expected missing-customer and empty-lines errors, got %v", errs)
	}

	draft := core.DraftOrder{
		CardCode: "C0001",
		Lines:    []core.Line{{ItemCode: "A100", Quantity: dec("2"), UnitPrice: dec("3.555")}},
	}
	if errs := core.ValidateDraft(draft); len(errs) != 0 {
		t.Fatalf("valid draft rejected: %v", errs)
	}
	if !draft.Total().Equal(dec("7.11")) {
		t.Errorf("draft total = %s, want 7.11", draft.Total())
	}
}
