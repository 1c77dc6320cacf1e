package web

import (
	"net/http"
	"strconv"

	"sap-orders/internal/app"
)

// intQuery parses a required integer query parameter, writing a 400 on
// failure.
func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		writeError(w, r, name+" must be an integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if claims := authFromContext(r.Context()); claims != nil && req.User == "" {
		req.User = claims.Username
	}

	result, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listOrders handles GET /api/orders/list?userId=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, r, "userId is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

// orderDetails handles GET /api/orders/details?orderId=.
func (h *Handler) orderDetails(w http.ResponseWriter, r *http.Request) {
	docNum, ok := intQuery(w, r, "orderId")
	if !ok {
		return
	}

	details, err := h.svc.OrderDetails(r.Context(), docNum)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if len(details) == 0 {
		writeError(w, r, "order not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, details)
}

// orderLines handles GET /api/orders/lines?docEntry= — the current remote
// line state the edit screen diffs against.
func (h *Handler) orderLines(w http.ResponseWriter, r *http.Request) {
	docEntry, ok := intQuery(w, r, "docEntry")
	if !ok {
		return
	}

	lines, err := h.svc.OrderLines(r.Context(), docEntry)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, lines)
}

// editOrder handles PATCH /api/orders/edit — the reconciliation flow.
func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	var req app.EditOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DocEntry <= 0 {
		writeError(w, r, "docEntry is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.EditOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// closeOrder handles POST /api/orders/close.
func (h *Handler) closeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocEntry int `json:"docEntry"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DocEntry <= 0 {
		writeError(w, r, "docEntry is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	if err := h.svc.CloseOrder(r.Context(), req.DocEntry); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "closed"})
}

// reprice handles POST /api/orders/reprice — batch repricing after the
// customer on a draft changed.
func (h *Handler) reprice(w http.ResponseWriter, r *http.Request) {
	var req app.RepriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CardCode == "" {
		writeError(w, r, "cardCode is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Reprice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// loadItems handles POST /api/orders/load-items — bulk item-code entry.
func (h *Handler) loadItems(w http.ResponseWriter, r *http.Request) {
	var req app.LoadItemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CardCode == "" {
		writeError(w, r, "cardCode is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.LoadItems(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// exportOrder handles GET /api/orders/export?orderId= — streams an XLSX
// rendering of the order.
func (h *Handler) exportOrder(w http.ResponseWriter, r *http.Request) {
	docNum, ok := intQuery(w, r, "orderId")
	if !ok {
		return
	}

	data, filename, err := h.svc.ExportOrder(r.Context(), docNum)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
