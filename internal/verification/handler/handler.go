package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"proof-gateway/internal/platform/middleware"
	"proof-gateway/internal/verification/models"
	"proof-gateway/internal/zkp"
	dErrors "proof-gateway/pkg/domain-errors"
	"proof-gateway/pkg/platform/httputil"
)

// Service defines the gateway operations the handler depends on.
type Service interface {
	Verify(ctx context.Context, in models.VerifyInput) (*models.VerifyResult, error)
	History(ctx context.Context, limit, offset int) (*models.HistoryResult, error)
}

// Prover is the optional server-side proving capability (age circuit only).
type Prover interface {
	ProveAge(ctx context.Context, w zkp.AgeWitness) (*zkp.AgeProof, error)
}

// CircuitStatusReporter reports artifact provisioning per circuit.
type CircuitStatusReporter interface {
	Status(names ...string) map[string]zkp.CircuitStatus
}

// Handler exposes the verification gateway over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  Service
	prover   Prover
	circuits CircuitStatusReporter
}

func New(service Service, prover Prover, circuits CircuitStatusReporter, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		prover:   prover,
		circuits: circuits,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.handleVerify)
	r.Get("/verify/status", h.handleCircuitStatus)
	r.Get("/verify/history", h.handleHistory)
	r.Post("/verify/generate-proof", h.handleGenerateProof)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in models.VerifyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.Verify(ctx, in)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNullifierReuse) {
			// Replay is an expected rejection: report verified=false alongside
			// the error code so callers need not special-case the envelope.
			httputil.WriteJSON(w, http.StatusConflict, map[string]any{
				"verified":          false,
				"error":             string(dErrors.CodeNullifierReuse),
				"error_description": "proof has already been used",
			})
			return
		}
		h.logVerifyError(r, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCircuitStatus(w http.ResponseWriter, r *http.Request) {
	status := h.circuits.Status(
		models.TypeAge.CircuitName(),
		models.TypeCredential.CircuitName(),
		models.TypeRegion.CircuitName(),
	)
	allReady := true
	for _, st := range status {
		if !st.Ready {
			allReady = false
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"circuits": status,
		"allReady": allReady,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	result, err := h.service.History(r.Context(), limit, offset)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load history",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// generateProofRequest is the payload for server-side age proving. Other
// types are proven client-side so private inputs never reach the server.
type generateProofRequest struct {
	Type          models.Type `json:"type"`
	BirthYear     int         `json:"birthYear"`
	BirthMonth    int         `json:"birthMonth"`
	BirthDay      int         `json:"birthDay"`
	NullifierBase string      `json:"nullifierBase"`
	CurrentYear   int         `json:"currentYear"`
	CurrentMonth  int         `json:"currentMonth"`
	CurrentDay    int         `json:"currentDay"`
	MinimumAge    int         `json:"minimumAge"`
}

func (h *Handler) handleGenerateProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Type != models.TypeAge {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"server-side proof generation is only supported for the age type; generate other proofs client-side"))
		return
	}

	base, ok := zkp.ParseField(req.NullifierBase)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "nullifierBase is not a field element"))
		return
	}
	if req.MinimumAge <= 0 {
		req.MinimumAge = 18
	}

	proof, err := h.prover.ProveAge(ctx, zkp.AgeWitness{
		BirthYear:     req.BirthYear,
		BirthMonth:    req.BirthMonth,
		BirthDay:      req.BirthDay,
		NullifierBase: base,
		CurrentYear:   req.CurrentYear,
		CurrentMonth:  req.CurrentMonth,
		CurrentDay:    req.CurrentDay,
		MinimumAge:    req.MinimumAge,
	})
	if err != nil {
		h.logVerifyError(r, err)
		httputil.WriteError(w, translateProverError(err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"proof":         proof.Proof,
		"publicSignals": proof.PublicSignals,
		"nullifier":     proof.Nullifier,
		"predicate":     proof.Predicate,
	})
}

func translateProverError(err error) error {
	switch {
	case errors.Is(err, zkp.ErrCircuitUnavailable):
		return dErrors.Wrap(err, dErrors.CodeCircuitUnavailable, "age circuit is not provisioned")
	case errors.Is(err, zkp.ErrMalformedProof):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid proving inputs")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "proof generation failed")
	}
}

func (h *Handler) logVerifyError(r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "verification request failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}
