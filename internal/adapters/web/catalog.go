package web

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

// searchItems handles GET /api/items?search=. A `*` in the search term is a
// wildcard; an empty term lists the leading page of the catalog.
func (h *Handler) searchItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.SearchItems(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// searchCustomers handles GET /api/customers/list?search=.
func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.SearchCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customers)
}

// itemPrice handles GET /api/items/price?itemCode=&priceList=.
func (h *Handler) itemPrice(w http.ResponseWriter, r *http.Request) {
	itemCode := r.URL.Query().Get("itemCode")
	if itemCode == "" {
		writeError(w, r, "itemCode is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	priceList, err := strconv.Atoi(r.URL.Query().Get("priceList"))
	if err != nil {
		writeError(w, r, "priceList must be an integer", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	price, err := h.svc.ItemPrice(r.Context(), itemCode, priceList)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, price)
}

// itemMargin handles GET /api/items/margin?itemCode=&price=.
func (h *Handler) itemMargin(w http.ResponseWriter, r *http.Request) {
	itemCode := r.URL.Query().Get("itemCode")
	if itemCode == "" {
		writeError(w, r, "itemCode is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	price, err := decimal.NewFromString(r.URL.Query().Get("price"))
	if err != nil {
		writeError(w, r, "price must be a number", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	margin, err := h.svc.ItemMargin(r.Context(), itemCode, price)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type marginResponse struct {
		ItemCode string          `json:"itemCode"`
		Margin   decimal.Decimal `json:"margin"`
	}
	writeJSON(w, marginResponse{ItemCode: itemCode, Margin: margin})
}
