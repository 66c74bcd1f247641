package httpapi

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes carried next to the human message so
// clients can branch without string matching.
const (
	codeUnauthorized     = "unauthorized"
	codePremiumRequired  = "premium_required"
	codeNotFound         = "not_found"
	codeInvalidPayload   = "invalid_payload"
	codeInvalidSignature = "invalid_signature"
	codeStoreUnavailable = "store_unavailable"
	codeProviderError    = "provider_error"
	codeValidationFailed = "validation_failed"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
