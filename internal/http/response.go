package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/logging"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleServiceError maps checkout errors to HTTP responses. Anything not
// recognized is logged and reported as a bare 500 so infrastructure details
// never reach the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr   *checkout.ValidationError
		rejErr *checkout.RejectionError
	)
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   vErr.Error(),
			Code:    "invalid_order",
			Details: map[string][]string{"fields": vErr.Fields},
		})
	case errors.As(err, &rejErr):
		status, code := http.StatusConflict, "out_of_stock"
		if errors.Is(rejErr, checkout.ErrProductNotFound) {
			status, code = http.StatusNotFound, "product_not_found"
		}
		respondJSON(w, status, ErrorResponse{
			Error: rejectionMessage(rejErr),
			Code:  code,
			Details: map[string]any{
				"product_id": rejErr.ProductID,
				"requested":  rejErr.Requested,
				"available":  rejErr.Available,
			},
		})
	case errors.Is(err, checkout.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, checkout.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func rejectionMessage(e *checkout.RejectionError) string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	if errors.Is(e, checkout.ErrProductNotFound) {
		return fmt.Sprintf("product %s not found", name)
	}
	if e.Available > 0 {
		return fmt.Sprintf("only %d of %s left in stock", e.Available, name)
	}
	return fmt.Sprintf("%s is out of stock", name)
}
