package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError carries a stable machine-readable code and a human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
}

const apiVersion = "v1"

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSONWithMeta(w, r, status, data, nil)
}

// writeJSONWithMeta is writeJSON for list endpoints that report a count.
func writeJSONWithMeta(w http.ResponseWriter, r *http.Request, status int, data any, meta *ResponseMeta) {
	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Version = apiVersion
	send(w, r, status, JSONResponse{Success: status < 300, Data: data, Meta: meta})
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	send(w, r, status, JSONResponse{Error: &APIError{Code: code, Message: message}, Meta: &ResponseMeta{}})
}

func send(w http.ResponseWriter, r *http.Request, status int, body JSONResponse) {
	body.Meta.Timestamp = time.Now().UTC()
	body.RequestID = requestID(r.Context())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
