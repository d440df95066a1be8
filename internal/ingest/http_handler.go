package ingest

import (
	"net/http"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// Ingest handles POST /v1/jobs/ingest
func (h *HTTPHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Run(r.Context())
	if err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "INGEST_FAILED", err.Error(), nil)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, res, nil)
}
