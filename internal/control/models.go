package control

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error               string `json:"error"`
	Message             string `json:"message,omitempty"`
	Code                int    `json:"code"`
	RemainingCooldownMs int64  `json:"remaining_cooldown_ms,omitempty"`
}

// AppsRequest replaces the blocked application set.
type AppsRequest struct {
	Apps []string `json:"apps"`
}

// DomainsRequest replaces the blocked domain set.
type DomainsRequest struct {
	Domains []string `json:"domains"`
}

// SecondsRequest sets a limit or interval.
type SecondsRequest struct {
	Seconds *int64 `json:"seconds"`
}

// BonusResponse is returned by the bonus and choice endpoints.
type BonusResponse struct {
	BonusSeconds uint32 `json:"bonus_seconds"`
}

// EventRequest carries the payload of a pushed detector event.
type EventRequest struct {
	Target    string `json:"target,omitempty"`
	Domain    string `json:"domain,omitempty"`
	SourceApp string `json:"source_app,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, `{"error":"Internal Server Error","message":"Failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// decodeJSON reads a bounded JSON request body.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
