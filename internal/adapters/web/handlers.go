// Package web is the HTTP adapter: chi routing, JWT auth, and JSON
// request/response shaping over the application service.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sap-orders/internal/app"
)

// Handler holds the ApplicationService and the signing secret for session
// tokens.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Post("/api/auth/login", h.login)
	})

	// ── Protected API routes (401 JSON if unauthenticated) ───────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Auth
		r.Get("/api/auth/me", h.me)
		r.Post("/api/auth/change-password", h.changePassword)

		// Catalog
		r.Get("/api/items", h.searchItems)
		r.Get("/api/items/price", h.itemPrice)
		r.Get("/api/items/margin", h.itemMargin)
		r.Get("/api/customers/list", h.searchCustomers)

		// Orders
		r.Post("/api/orders", h.createOrder)
		r.Get("/api/orders/list", h.listOrders)
		r.Get("/api/orders/details", h.orderDetails)
		r.Get("/api/orders/lines", h.orderLines)
		r.Patch("/api/orders/edit", h.editOrder)
		r.Post("/api/orders/close", h.closeOrder)
		r.Post("/api/orders/reprice", h.reprice)
		r.Post("/api/orders/load-items", h.loadItems)
		r.Get("/api/orders/export", h.exportOrder)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
