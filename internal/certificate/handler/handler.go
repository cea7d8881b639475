package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	auditmodels "certverify/internal/audit/models"
	"certverify/internal/certificate/models"
	"certverify/internal/certificate/service"
	"certverify/internal/certificate/store"
	"certverify/internal/platform/middleware"
	"certverify/pkg/domain"
	dErrors "certverify/pkg/domain-errors"
	"certverify/pkg/platform/httputil"
	"certverify/pkg/requestcontext"
)

// VerificationHistory reads back the verification log for a certificate.
type VerificationHistory interface {
	History(ctx context.Context, certificateNumber string) ([]*auditmodels.Entry, error)
}

type Handler struct {
	service   *service.Service
	history   VerificationHistory
	validator *middleware.TokenValidator
	logger    *slog.Logger
}

func New(service *service.Service, history VerificationHistory, validator *middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, history: history, validator: validator, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.validator, h.logger, domain.RoleUniversity))
		r.Post("/certificates", h.issue)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.validator, h.logger, domain.RoleUniversity, domain.RoleAdmin))
		r.Get("/certificates", h.list)
		r.Get("/certificates/{certificateNumber}", h.get)
		r.Post("/certificates/{certificateNumber}/revoke", h.revoke)
		if h.history != nil {
			r.Get("/certificates/{certificateNumber}/verifications", h.verifications)
		}
	})
}

type issueRequest struct {
	StudentID      string     `json:"studentId"`
	StudentName    string     `json:"studentName"`
	StudentEmail   string     `json:"studentEmail"`
	CourseName     string     `json:"courseName"`
	Specialization string     `json:"specialization"`
	Grade          string     `json:"grade"`
	CGPA           *float64   `json:"cgpa"`
	IssueDate      time.Time  `json:"issueDate"`
	CompletionDate *time.Time `json:"completionDate"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[issueRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The issuing university comes from the token, never the body: a
	// university can only issue in its own name.
	universityID := middleware.UniversityID(r)
	if universityID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token is not bound to a university"))
		return
	}

	cert, err := h.service.Issue(r.Context(), models.IssueFields{
		StudentID:      req.StudentID,
		StudentName:    req.StudentName,
		StudentEmail:   req.StudentEmail,
		UniversityID:   universityID,
		CourseName:     req.CourseName,
		Specialization: req.Specialization,
		Grade:          req.Grade,
		CGPA:           req.CGPA,
		IssueDate:      req.IssueDate,
		CompletionDate: req.CompletionDate,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cert)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "certificateNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		StudentEmail: r.URL.Query().Get("studentEmail"),
		Status:       r.URL.Query().Get("status"),
	}

	certs, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, certs)
}

func (h *Handler) verifications(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.History(r.Context(), chi.URLParam(r, "certificateNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []*auditmodels.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[revokeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.Revoke(r.Context(), chi.URLParam(r, "certificateNumber"), req.Reason, requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}
