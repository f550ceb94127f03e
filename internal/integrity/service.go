// Package integrity composes the identity store, role authority, election
// registry, vote ledger, and tally engine behind one façade. Each operation
// is a single logical transaction against the underlying stores; callers
// never observe a partially applied multi-step operation.
package integrity

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	electionmodels "civitas/internal/election/models"
	identitymodels "civitas/internal/identity/models"
	ledgermodels "civitas/internal/ledger/models"
	rolesmodels "civitas/internal/roles/models"
	"civitas/internal/tally"
	id "civitas/pkg/domain"
	"civitas/pkg/requestcontext"
)

// IdentityService is the identity store surface the façade composes.
type IdentityService interface {
	RegisterProfile(ctx context.Context, in identitymodels.RegisterInput) (*identitymodels.Profile, error)
	SetVerificationStatus(ctx context.Context, profileID id.ProfileID, status identitymodels.VerificationStatus) (*identitymodels.Profile, error)
	GetProfile(ctx context.Context, userID id.UserID) (*identitymodels.Profile, error)
}

// RoleService is the role authority surface the façade composes.
type RoleService interface {
	AssignRole(ctx context.Context, userID id.UserID, role rolesmodels.Role) (*rolesmodels.Assignment, error)
	RevokeRole(ctx context.Context, userID id.UserID, role rolesmodels.Role) error
	ListRoles(ctx context.Context, userID id.UserID) ([]*rolesmodels.Assignment, error)
}

// ElectionService is the election registry surface the façade composes.
type ElectionService interface {
	CreateElection(ctx context.Context, def electionmodels.Definition) (*electionmodels.Election, error)
	ComputeStatus(ctx context.Context, electionID id.ElectionID) (electionmodels.Status, error)
	AddCandidate(ctx context.Context, electionID id.ElectionID, in electionmodels.CandidateInput) (*electionmodels.Candidate, error)
	CancelElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error)
	GetElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error)
	ListElections(ctx context.Context, constituency string, status electionmodels.Status) ([]*electionmodels.Election, error)
	ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*electionmodels.Candidate, error)
	CreateParty(ctx context.Context, name, abbreviation, symbolURL string) (*electionmodels.Party, error)
	ListParties(ctx context.Context) ([]*electionmodels.Party, error)
}

// LedgerService is the vote ledger surface the façade composes.
type LedgerService interface {
	CastVote(ctx context.Context, electionID id.ElectionID, candidateID id.CandidateID, voterID id.UserID) (*ledgermodels.Receipt, error)
	HasVoted(ctx context.Context, electionID id.ElectionID, voterID id.UserID) (bool, error)
	VerifyReceipt(ctx context.Context, electionID id.ElectionID, voterID id.UserID, presentedHash string) (bool, error)
}

// TallyService is the tally engine surface the façade composes.
type TallyService interface {
	Tally(ctx context.Context, electionID id.ElectionID) (*tally.Result, error)
}

// Service is the integrity façade.
type Service struct {
	identity  IdentityService
	roles     RoleService
	elections ElectionService
	ledger    LedgerService
	tallies   TallyService
	tracer    trace.Tracer
}

func NewService(identity IdentityService, roles RoleService, elections ElectionService, ledger LedgerService, tallies TallyService) *Service {
	return &Service{
		identity:  identity,
		roles:     roles,
		elections: elections,
		ledger:    ledger,
		tallies:   tallies,
		tracer:    otel.Tracer("civitas/integrity"),
	}
}

func (s *Service) Register(ctx context.Context, in identitymodels.RegisterInput) (*identitymodels.Profile, error) {
	return s.identity.RegisterProfile(ctx, in)
}

func (s *Service) SetVerification(ctx context.Context, profileID id.ProfileID, status identitymodels.VerificationStatus) (*identitymodels.Profile, error) {
	return s.identity.SetVerificationStatus(ctx, profileID, status)
}

func (s *Service) GetProfile(ctx context.Context, userID id.UserID) (*identitymodels.Profile, error) {
	return s.identity.GetProfile(ctx, userID)
}

func (s *Service) AssignRole(ctx context.Context, userID id.UserID, role rolesmodels.Role) (*rolesmodels.Assignment, error) {
	return s.roles.AssignRole(ctx, userID, role)
}

func (s *Service) RevokeRole(ctx context.Context, userID id.UserID, role rolesmodels.Role) error {
	return s.roles.RevokeRole(ctx, userID, role)
}

func (s *Service) ListRoles(ctx context.Context, userID id.UserID) ([]*rolesmodels.Assignment, error) {
	return s.roles.ListRoles(ctx, userID)
}

func (s *Service) CreateElection(ctx context.Context, def electionmodels.Definition) (*electionmodels.Election, error) {
	return s.elections.CreateElection(ctx, def)
}

func (s *Service) AddCandidate(ctx context.Context, electionID id.ElectionID, in electionmodels.CandidateInput) (*electionmodels.Candidate, error) {
	return s.elections.AddCandidate(ctx, electionID, in)
}

func (s *Service) CancelElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error) {
	return s.elections.CancelElection(ctx, electionID)
}

func (s *Service) GetStatus(ctx context.Context, electionID id.ElectionID) (electionmodels.Status, error) {
	return s.elections.ComputeStatus(ctx, electionID)
}

func (s *Service) GetElection(ctx context.Context, electionID id.ElectionID) (*electionmodels.Election, error) {
	return s.elections.GetElection(ctx, electionID)
}

func (s *Service) ListElections(ctx context.Context, constituency string, status electionmodels.Status) ([]*electionmodels.Election, error) {
	return s.elections.ListElections(ctx, constituency, status)
}

func (s *Service) ListCandidates(ctx context.Context, electionID id.ElectionID) ([]*electionmodels.Candidate, error) {
	return s.elections.ListCandidates(ctx, electionID)
}

func (s *Service) CreateParty(ctx context.Context, name, abbreviation, symbolURL string) (*electionmodels.Party, error) {
	return s.elections.CreateParty(ctx, name, abbreviation, symbolURL)
}

func (s *Service) ListParties(ctx context.Context) ([]*electionmodels.Party, error) {
	return s.elections.ListParties(ctx)
}

// CastVote records the authenticated actor's vote.
func (s *Service) CastVote(ctx context.Context, electionID id.ElectionID, candidateID id.CandidateID) (*ledgermodels.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "integrity.CastVote",
		trace.WithAttributes(attribute.String("election.id", electionID.String())))
	defer span.End()

	receipt, err := s.ledger.CastVote(ctx, electionID, candidateID, requestcontext.ActorID(ctx))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return receipt, nil
}

func (s *Service) HasVoted(ctx context.Context, electionID id.ElectionID) (bool, error) {
	return s.ledger.HasVoted(ctx, electionID, requestcontext.ActorID(ctx))
}

func (s *Service) VerifyReceipt(ctx context.Context, electionID id.ElectionID, presentedHash string) (bool, error) {
	return s.ledger.VerifyReceipt(ctx, electionID, requestcontext.ActorID(ctx), presentedHash)
}

// GetTally returns the election's results, gated by the tally engine's
// visibility rules.
func (s *Service) GetTally(ctx context.Context, electionID id.ElectionID) (*tally.Result, error) {
	ctx, span := s.tracer.Start(ctx, "integrity.GetTally",
		trace.WithAttributes(attribute.String("election.id", electionID.String())))
	defer span.End()

	result, err := s.tallies.Tally(ctx, electionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}
