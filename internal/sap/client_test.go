package sap_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sap-orders/internal/core"
	"sap-orders/internal/sap"

	"github.com/shopspring/decimal"
)

// fakeServiceLayer records requests and plays back canned Service Layer
// responses, including the login/logout session dance.
type fakeServiceLayer struct {
	t            *testing.T
	logins       int
	logouts      int
	lastMethod   string
	lastPath     string
	lastBody     []byte
	orderDoc     string // canned GET Orders(n) response
	failWith     string // when set, mutations return this error message with 400
	lastHadToken bool
}

func (f *fakeServiceLayer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/Login"):
			f.logins++
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"SessionId":"sess-123"}`)
		case strings.HasSuffix(r.URL.Path, "/Logout"):
			f.logouts++
			w.WriteHeader(http.StatusNoContent)
		default:
			f.lastMethod = r.Method
			f.lastPath = r.URL.Path + "?" + r.URL.RawQuery
			f.lastBody, _ = io.ReadAll(r.Body)
			f.lastHadToken = strings.Contains(r.Header.Get("Cookie"), "B1SESSION=sess-123")
			if f.failWith != "" {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"error":{"code":-5002,"message":{"lang":"en-us","value":"`+f.failWith+`"}}}`)
				return
			}
			if r.Method == http.MethodGet {
				io.WriteString(w, f.orderDoc)
				return
			}
			if r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/Orders") && !strings.Contains(r.URL.Path, "Close") {
				w.WriteHeader(http.StatusCreated)
				io.WriteString(w, `{"DocEntry":901,"DocNum":12045}`)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})
}

func newTestClient(t *testing.T, f *fakeServiceLayer) *sap.Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return sap.NewClient(sap.Config{
		BaseURL:   srv.URL + "/b1s/v1",
		CompanyDB: "TESTDB",
		Username:  "manager",
		Password:  "secret",
	})
}

func TestCreateOrder_SessionPerOperation(t *testing.T) {
	f := &fakeServiceLayer{t: t}
	c := newTestClient(t, f)

	draft := core.DraftOrder{
		CardCode: "C0001",
		Comments: "test order",
		User:     "7",
		Series:   13,
		Lines: []core.Line{
			{ItemCode: "A100", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromFloat(10.5)},
		},
	}

	docEntry, docNum, err := c.CreateOrder(context.Background(), draft)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if docEntry != 901 || docNum != 12045 {
		t.Errorf("got docEntry=%d docNum=%d", docEntry, docNum)
	}
	if f.logins != 1 || f.logouts != 1 {
		t.Errorf("expected exactly one login and one logout, got %d/%d", f.logins, f.logouts)
	}
	if !f.lastHadToken {
		t.Error("order request missing B1SESSION cookie")
	}

	var doc map[string]any
	if err := json.Unmarshal(f.lastBody, &doc); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if doc["CardCode"] != "C0001" || doc["U_RL_Origen"] != "WEBAPP" || doc["U_RL_Usuario"] != "7" {
		t.Errorf("create payload header wrong: %v", doc)
	}
	lines := doc["DocumentLines"].([]any)
	first := lines[0].(map[string]any)
	if first["Quantity"] != 2.0 || first["UnitPrice"] != 10.5 {
		t.Errorf("line values must be JSON numbers: %v", first)
	}
	if first["COGSCostingCode"] != "2" || first["CostingCode2"] != "2.1" {
		t.Errorf("costing codes not stamped: %v", first)
	}
}

func TestFetchOrder(t *testing.T) {
	f := &fakeServiceLayer{t: t, orderDoc: `{
		"DocEntry": 42, "DocNum": 12001, "CardCode": "C0001",
		"Comments": "hello", "Series": 13, "DocTotal": 115.0, "VatSum": 15.0,
		"DocumentLines": [
			{"LineNum": 0, "ItemCode": "A100", "Quantity": 2, "UnitPrice": 10, "WarehouseCode": "001"},
			{"LineNum": 1, "ItemCode": "B200", "Quantity": 1, "UnitPrice": 5}
		]
	}`}
	c := newTestClient(t, f)

	order, err := c.FetchOrder(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchOrder: %v", err)
	}
	if order.DocEntry != 42 || order.DocNum != 12001 {
		t.Errorf("order header wrong: %+v", order)
	}
	if !order.DocTotal.Equal(decimal.NewFromInt(115)) {
		t.Errorf("DocTotal = %s", order.DocTotal)
	}
	if len(order.Lines) != 2 || order.Lines[0].LineNum != 0 || order.Lines[1].ItemCode != "B200" {
		t.Errorf("lines wrong: %+v", order.Lines)
	}
	if !strings.Contains(f.lastPath, "$select=") {
		t.Errorf("fetch should project fields, got path %s", f.lastPath)
	}
}

func TestUpdateOrder_OmitsServerAggregates(t *testing.T) {
	f := &fakeServiceLayer{t: t}
	c := newTestClient(t, f)

	out := core.OutboundOrder{
		DocEntry: 42,
		CardCode: "C0001",
		Comments: "edited",
		Lines: []core.RemoteLine{
			{LineNum: 0, ItemCode: "A100", Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(10)},
			{LineNum: 1, ItemCode: "C300", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(7)},
		},
	}
	if err := c.UpdateOrder(context.Background(), out); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if f.lastMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", f.lastMethod)
	}

	var doc map[string]any
	if err := json.Unmarshal(f.lastBody, &doc); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	for _, banned := range []string{"DocTotal", "VatSum"} {
		if _, ok := doc[banned]; ok {
			t.Errorf("server-computed field %s must not be submitted", banned)
		}
	}
	lines := doc["DocumentLines"].([]any)
	if len(lines) != 2 {
		t.Fatalf("expected 2 wire lines, got %d", len(lines))
	}
	second := lines[1].(map[string]any)
	if second["LineNum"] != 1.0 || second["ItemCode"] != "C300" {
		t.Errorf("renumbered line wrong on the wire: %v", second)
	}
}

func TestUpdateOrder_SurfacesServerMessage(t *testing.T) {
	f := &fakeServiceLayer{t: t, failWith: "10000111 - Invalid row sequence"}
	c := newTestClient(t, f)

	err := c.UpdateOrder(context.Background(), core.OutboundOrder{DocEntry: 42})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *sap.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Code != -5002 || !strings.Contains(apiErr.Message, "Invalid row sequence") {
		t.Errorf("server message not preserved: %+v", apiErr)
	}
}

func TestCloseOrder(t *testing.T) {
	f := &fakeServiceLayer{t: t}
	c := newTestClient(t, f)

	if err := c.CloseOrder(context.Background(), 42); err != nil {
		t.Fatalf("CloseOrder: %v", err)
	}
	if f.lastMethod != http.MethodPost || !strings.Contains(f.lastPath, "Orders(42)/Close") {
		t.Errorf("close request wrong: %s %s", f.lastMethod, f.lastPath)
	}
}
