package handler

import (
	"net/http"

	"github.com/ragno-typhojem/libocculus/internal/application/report"
	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/transport/http/middleware"
)

// ReportHandler accepts occupancy reports and serves the per-location overview.
type ReportHandler struct {
	svc report.Service
}

func NewReportHandler(svc report.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpError(w, r, domain.ErrUnauthorized)
		return
	}
	var req report.SubmitRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	res, err := h.svc.Submit(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReportHandler) Locations(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.Overview(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
