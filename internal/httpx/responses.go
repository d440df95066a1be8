package httpx

import (
	"encoding/json"
	"maps"
	"net/http"
)

// SuccessResponse is the envelope for 2xx bodies.
type SuccessResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorResponse is the envelope for error bodies.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   ErrorResponseBody `json:"error"`
	Meta    map[string]any    `json:"meta,omitempty"`
}

type ErrorResponseBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail points at one offending field. Index is set when the request
// carried a batch of records.
type ErrorDetail struct {
	Index   *int   `json:"index,omitempty"`
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// requestMeta merges the request id into extra. It returns nil when there
// is nothing to report so the meta key is omitted.
func requestMeta(r *http.Request, extra map[string]any) map[string]any {
	id := RequestIDFrom(r)
	if id == "" && len(extra) == 0 {
		return nil
	}
	meta := make(map[string]any, len(extra)+1)
	maps.Copy(meta, extra)
	if id != "" {
		meta["request_id"] = id
	}
	return meta
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSONSuccessWithRequest writes a 200 envelope. Keys in meta sit next to
// the request id.
func JSONSuccessWithRequest(r *http.Request, w http.ResponseWriter, data any, meta map[string]any) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data, Meta: requestMeta(r, meta)})
}

func JSONSuccessCreatedWithRequest(r *http.Request, w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: data, Meta: requestMeta(r, nil)})
}

func JSONErrorWithRequest(r *http.Request, w http.ResponseWriter, status int, code, message string, details []ErrorDetail) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorResponseBody{Code: code, Message: message, Details: details},
		Meta:  requestMeta(r, nil),
	})
}
