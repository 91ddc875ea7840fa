package auth

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the flat error envelope clients dispatch on.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeConflict writes a conflict response carrying the assertion's
// safe fields alongside the code.
func writeConflict(w http.ResponseWriter, status int, code string, fields map[string]string) {
	body := map[string]any{"code": code}
	for k, v := range fields {
		if v != "" {
			body[k] = v
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON decodes a request body, capping it at 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "malformed request body")
		return false
	}
	return true
}
