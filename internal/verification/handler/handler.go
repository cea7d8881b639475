package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"certverify/internal/verification/service"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/platform/httputil"
)

// maxBulkSize caps one bulk request. Larger batches should be split by the
// caller.
const maxBulkSize = 100

// Handler exposes the public verification endpoints. No authentication:
// anyone holding a certificate number or verification code may verify it.
type Handler struct {
	service *service.Service
}

func New(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.verify)
	r.Post("/verify/bulk", h.verifyBulk)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[service.Request](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Verify(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type bulkRequest struct {
	Requests []service.Request `json:"requests"`
}

type bulkResponse struct {
	Results []service.BulkEntry `json:"results"`
}

func (h *Handler) verifyBulk(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[bulkRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.Requests) > maxBulkSize {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "bulk verification is limited to 100 requests"))
		return
	}

	entries, err := h.service.VerifyBulk(r.Context(), req.Requests)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bulkResponse{Results: entries})
}
