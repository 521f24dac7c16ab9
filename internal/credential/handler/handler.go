package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"proof-gateway/internal/credential/models"
	dErrors "proof-gateway/pkg/domain-errors"
	"proof-gateway/pkg/platform/httputil"
)

// Service defines the issuance operations the handler depends on.
type Service interface {
	Issue(ctx context.Context, raw models.RawAttributes) (*models.IssueResult, error)
	CheckCommitment(ctx context.Context, commitment string) (*models.CommitmentStatus, error)
	ListIssuers(ctx context.Context) ([]*models.Issuer, error)
	Revoke(ctx context.Context, commitment string) error
}

// Handler exposes credential issuance over HTTP.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the credential routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/issue", h.handleIssue)
	r.Get("/credentials/commitment/{commitment}", h.handleCheckCommitment)
	r.Get("/credentials/issuers", h.handleListIssuers)
	r.Post("/credentials/revoke", h.handleRevoke)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var raw models.RawAttributes
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Issue(r.Context(), raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleCheckCommitment(w http.ResponseWriter, r *http.Request) {
	commitment := chi.URLParam(r, "commitment")
	if commitment == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "commitment is required"))
		return
	}

	status, err := h.service.CheckCommitment(r.Context(), commitment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleListIssuers(w http.ResponseWriter, r *http.Request) {
	issuers, err := h.service.ListIssuers(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"issuers": issuers})
}

type revokeRequest struct {
	Commitment string `json:"commitment"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Commitment == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "commitment is required"))
		return
	}

	if err := h.service.Revoke(r.Context(), req.Commitment); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"revoked": true})
}
