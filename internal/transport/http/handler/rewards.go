package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ragno-typhojem/libocculus/internal/application/reward"
	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/transport/http/middleware"
)

// RewardHandler serves the reward catalog and the caller's redemptions.
type RewardHandler struct {
	svc reward.Service
}

func NewRewardHandler(svc reward.Service) *RewardHandler {
	return &RewardHandler{svc: svc}
}

func (h *RewardHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.List())
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpError(w, r, domain.ErrUnauthorized)
		return
	}
	res, err := h.svc.Redeem(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *RewardHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpError(w, r, domain.ErrUnauthorized)
		return
	}
	list, err := h.svc.ListRedemptions(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *RewardHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		httpError(w, r, domain.ErrUnauthorized)
		return
	}
	img, err := h.svc.QRCode(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}
