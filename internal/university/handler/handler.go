package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certverify/internal/platform/middleware"
	"certverify/internal/university/models"
	"certverify/internal/university/service"
	"certverify/pkg/domain"
	"certverify/pkg/platform/httputil"
)

type Handler struct {
	service   *service.Service
	validator *middleware.TokenValidator
	logger    *slog.Logger
}

func New(service *service.Service, validator *middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, validator: validator, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/universities", h.register)
	r.Get("/universities", h.list)
	r.Get("/universities/{universityID}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.validator, h.logger, domain.RoleAdmin))
		r.Post("/universities/{universityID}/verify", h.setVerified)
	})
}

type registerRequest struct {
	ID       string `json:"universityId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[registerRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.service.Register(r.Context(), models.RegisterFields{
		ID:       req.ID,
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), chi.URLParam(r, "universityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	us, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, us)
}

type setVerifiedRequest struct {
	Verified bool `json:"verified"`
}

func (h *Handler) setVerified(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[setVerifiedRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.service.SetVerified(r.Context(), chi.URLParam(r, "universityID"), req.Verified)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}
