// Package handler is the HTTP layer over the integrity façade. Handlers
// decode, validate, delegate, and translate errors; no business logic.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	electionmodels "civitas/internal/election/models"
	identitymodels "civitas/internal/identity/models"
	ledgermodels "civitas/internal/ledger/models"
	"civitas/internal/platform/metrics"
	"civitas/internal/platform/middleware"
	rolesmodels "civitas/internal/roles/models"
	"civitas/internal/tally"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/httputil"
	"civitas/pkg/requestcontext"
)

// Service defines the façade operations the HTTP layer exposes.
type Service interface {
	Register(ctx context.Context, in identitymodels.RegisterInput) (*identitymodels.Profile, error)
	SetVerification(ctx context.Context, profileID id.ProfileID, status identitymodels.VerificationStatus) (*identitymodels.Profile, error)
	GetProfile(ctx context.Context, userID id.UserID) (*identitymodels.Profile, error)

	AssignRole(ctx context.Context, userID id.UserID, role rolesmodels.Role) (*rolesmodels.Assignment, error)
	RevokeRole(ctx context.Context, userID id.UserID, role rolesmodels.Role) error
	ListRoles(ctx context.Context, userID id.UserID) ([]*rolesmodels.Assignment, error)

	CreateElection(ctx context.Context, def electionmodels.Definition) (*electionmodels.Election, error)
	AddCandidate(ctx context.Context, electionID id.ElectionID, in electionmodels.CandidateInput) (*electionmodels.Candidate, error)
	CancelElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error)
	GetStatus(ctx context.Context, electionID id.ElectionID) (electionmodels.Status, error)
	GetElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error)
	ListElections(ctx context.Context, constituency string, status electionmodels.Status) ([]*electionmodels.Election, error)
	ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*electionmodels.Candidate, error)
	CreateParty(ctx context.Context, name, abbreviation, symbolURL string) (*electionmodels.Party, error)
	ListParties(ctx context.Context) ([]*electionmodels.Party, error)

	CastVote(ctx context.Context, electionID id.ElectionID, candidateID id.CandidateID) (*ledgermodels.Receipt, error)
	HasVoted(ctx context.Context, electionID id.ElectionID) (bool, error)
	VerifyReceipt(ctx context.Context, electionID id.ElectionID, presentedHash string) (bool, error)
	GetTally(ctx context.Context, electionID id.ElectionID) (*tally.Result, error)
}

// Handler wires the API routes to the integrity façade.
type Handler struct {
	service   Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

// New constructs the handler with its dependencies.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		metrics:   m,
		validator: validator,
	}
}

// Register mounts all routes. Reads are optionally authenticated so public
// election data stays public; writes require a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.LatencyMiddleware(h.metrics))

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(h.validator, h.logger))
		r.Get("/elections", h.handleListElections)
		r.Get("/elections/{electionID}", h.handleGetElection)
		r.Get("/elections/{electionID}/status", h.handleGetStatus)
		r.Get("/elections/{electionID}/candidates", h.handleListCandidates)
		r.Get("/elections/{electionID}/results", h.handleGetResults)
		r.Get("/parties", h.handleListParties)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/identity/register", h.handleRegister)
		r.Get("/identity/me", h.handleGetMyProfile)
		r.Post("/identity/profiles/{profileID}/verification", h.handleSetVerification)

		r.Post("/roles/assign", h.handleAssignRole)
		r.Post("/roles/revoke", h.handleRevokeRole)
		r.Get("/roles/users/{userID}", h.handleListRoles)

		r.Post("/elections", h.handleCreateElection)
		r.Post("/elections/{electionID}/candidates", h.handleAddCandidate)
		r.Post("/elections/{electionID}/cancel", h.handleCancelElection)

		r.Post("/elections/{electionID}/votes", h.handleCastVote)
		r.Get("/elections/{electionID}/votes/me", h.handleHasVoted)
		r.Post("/elections/{electionID}/receipts/verify", h.handleVerifyReceipt)

		r.Post("/parties", h.handleCreateParty)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	profile, err := h.service.Register(ctx, req.ToInput(requestcontext.ActorID(ctx)))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) handleGetMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.service.GetProfile(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleSetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, err := id.ParseProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetVerificationRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	profile, err := h.service.SetVerification(ctx, profileID, req.ParsedStatus())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RoleRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	assignment, err := h.service.AssignRole(ctx, req.ParsedUserID(), req.ParsedRole())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RoleRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.service.RevokeRole(ctx, req.ParsedUserID(), req.ParsedRole()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	assignments, err := h.service.ListRoles(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assignments)
}

func (h *Handler) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateElectionRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	election, err := h.service.CreateElection(ctx, req.ToDefinition())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromElection(election, requestcontext.Now(ctx)))
}

func (h *Handler) handleListElections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := electionmodels.Status(r.URL.Query().Get("status"))
	if status != "" {
		switch status {
		case electionmodels.StatusUpcoming, electionmodels.StatusActive,
			electionmodels.StatusCompleted, electionmodels.StatusCancelled:
		default:
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", status))
			return
		}
	}

	elections, err := h.service.ListElections(ctx, r.URL.Query().Get("constituency"), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromElections(elections, requestcontext.Now(ctx)))
}

func (h *Handler) handleGetElection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	election, err := h.service.GetElection(ctx, electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromElection(election, requestcontext.Now(ctx)))
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.GetStatus(ctx, electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: status})
}

func (h *Handler) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddCandidateRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	candidate, err := h.service.AddCandidate(ctx, electionID, req.ToInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, candidate)
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	candidates, err := h.service.ListCandidates(ctx, electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, candidates)
}

func (h *Handler) handleCancelElection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	election, err := h.service.CancelElection(ctx, electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromElection(election, requestcontext.Now(ctx)))
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CastVoteRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	receipt, err := h.service.CastVote(ctx, electionID, req.ParsedCandidateID())
	if err != nil {
		h.logger.WarnContext(ctx, "cast vote rejected",
			"request_id", requestID,
			"election_id", electionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	voted, err := h.service.HasVoted(ctx, electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HasVotedResponse{HasVoted: voted})
}

func (h *Handler) handleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyReceiptRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	valid, err := h.service.VerifyReceipt(ctx, electionID, req.VoteHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyReceiptResponse{Valid: valid})
}

func (h *Handler) handleGetResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.GetTally(ctx, electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreatePartyRequest](w, r, h.logger, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	party, err := h.service.CreateParty(ctx, req.Name, req.Abbreviation, req.SymbolURL)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, party)
}

func (h *Handler) handleListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.service.ListParties(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, parties)
}
