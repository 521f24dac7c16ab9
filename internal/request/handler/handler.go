package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"proof-gateway/internal/request/models"
	dErrors "proof-gateway/pkg/domain-errors"
	"proof-gateway/pkg/platform/httputil"
)

// Service defines the request orchestration operations the handler depends on.
type Service interface {
	Create(ctx context.Context, in models.CreateInput) (*models.CreateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error)
	Complete(ctx context.Context, id uuid.UUID, proof string, publicSignals []string, nullifier string) (*models.CompleteResult, error)
	ResolveShareCode(ctx context.Context, token string) (*models.VerificationRequest, error)
	ListPending(ctx context.Context, verifierName string) ([]*models.VerificationRequest, error)
}

// Handler exposes the verification-request flow over HTTP.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the request routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/request", h.handleCreate)
	r.Get("/verify/requests", h.handleListPending)
	r.Post("/verify/request/resolve", h.handleResolve)
	r.Get("/verify/request/{id}", h.handleGet)
	r.Post("/verify/request/{id}/complete", h.handleComplete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in models.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Create(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request id must be a UUID"))
		return
	}

	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

type completeRequest struct {
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"publicSignals"`
	Nullifier     string   `json:"nullifier"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request id must be a UUID"))
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Complete(r.Context(), id, req.Proof, req.PublicSignals, req.Nullifier)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type resolveRequest struct {
	ShareableCode string `json:"shareableCode"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.ShareableCode == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "shareableCode is required"))
		return
	}

	resolved, err := h.service.ResolveShareCode(r.Context(), req.ShareableCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolved)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	verifier := r.URL.Query().Get("verifier")
	reqs, err := h.service.ListPending(r.Context(), verifier)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if reqs == nil {
		reqs = []*models.VerificationRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}
