// Package api defines the uniform response envelope shared by every HTTP
// handler in the service.
package api

import (
	"encoding/json"
	"net/http"
)

// Stable machine-checkable error kinds. Clients branch on these, never on
// the human-readable message.
const (
	KindValidation         = "validation_error"
	KindUnauthorized       = "unauthorized"
	KindNotFound           = "not_found"
	KindInsufficientStock  = "insufficient_stock"
	KindProductUnavailable = "product_unavailable"
	KindEmptyCart          = "empty_cart"
	KindInvalidStatus      = "invalid_status"
	KindNotCancellable     = "not_cancellable"
	KindConflict           = "conflict"
	KindInternal           = "internal_error"
)

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteData(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data})
}

func WriteMessage(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, Envelope{Success: true, Message: message, Data: data})
}

func WriteError(w http.ResponseWriter, status int, kind, message string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: kind, Message: message})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
