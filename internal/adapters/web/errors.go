package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"sap-orders/internal/app"
	"sap-orders/internal/core"
	"sap-orders/internal/sap"
)

type errorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps application errors onto HTTP statuses. Validation
// failures carry every per-line problem so the client can show them all;
// Service Layer rejections keep the server's own message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vf *app.ValidationFailure
	if errors.As(err, &vf) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		resp := errorResponse{
			Error:     "validation failed",
			Code:      "VALIDATION_FAILED",
			RequestID: requestIDFromContext(r.Context()),
		}
		for _, p := range vf.Problems {
			resp.Details = append(resp.Details, p.Error())
		}
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	var apiErr *sap.APIError
	if errors.As(err, &apiErr) {
		writeError(w, r, apiErr.Message, "SERVICE_LAYER_ERROR", http.StatusBadGateway)
		return
	}

	var seqErr *core.SequencingError
	if errors.As(err, &seqErr) {
		writeError(w, r, seqErr.Error(), "SEQUENCE_BROKEN", http.StatusConflict)
		return
	}

	if errors.Is(err, core.ErrPriceNotFound) {
		writeError(w, r, err.Error(), "PRICE_NOT_FOUND", http.StatusNotFound)
		return
	}

	writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
