package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	electionmodels "civitas/internal/election/models"
	electionservice "civitas/internal/election/service"
	electionstore "civitas/internal/election/store"
	identitymodels "civitas/internal/identity/models"
	identityservice "civitas/internal/identity/service"
	identitystore "civitas/internal/identity/store"
	"civitas/internal/integrity"
	"civitas/internal/integrity/handler"
	jwttoken "civitas/internal/jwt_token"
	ledgerservice "civitas/internal/ledger/service"
	ledgerstore "civitas/internal/ledger/store"
	rolesmodels "civitas/internal/roles/models"
	rolesservice "civitas/internal/roles/service"
	rolesstore "civitas/internal/roles/store"
	"civitas/internal/tally"
	id "civitas/pkg/domain"
	"civitas/pkg/testutil"
)

// =============================================================================
// HTTP API Test Suite
// =============================================================================
// Drives the full in-memory stack through the router with real bearer
// tokens. Fixture elections are seeded directly through the services with a
// pinned clock; the HTTP requests themselves run on the real clock, so an
// "active" fixture straddles time.Now.

type HandlerSuite struct {
	suite.Suite
	router    chi.Router
	jwt       *jwttoken.JWTService
	identity  *identityservice.Service
	elections *electionservice.Service

	admin    id.UserID
	official id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	rs := rolesstore.NewInMemory()
	roles := rolesservice.New(rs)
	s.admin = id.NewUserID()
	s.official = id.NewUserID()
	s.Require().NoError(rolesservice.SeedAdmin(context.Background(), rs, s.admin))
	_, err := roles.AssignRole(testutil.ActorContext(s.admin), s.official, rolesmodels.RoleElectionOfficial)
	s.Require().NoError(err)

	authority := integrity.NewAuthority(roles)
	s.identity = identityservice.New(identitystore.NewInMemory(), authority)
	s.elections = electionservice.New(electionstore.NewInMemory(), authority)
	ledger := ledgerservice.New(ledgerstore.NewInMemory(), s.identity, s.elections, "handler-test-secret")
	tallies := tally.New(ledger, s.elections, roles)
	service := integrity.NewService(s.identity, roles, s.elections, ledger, tallies)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.NewJWTService("handler-test-key", "civitas", "civitas-api")

	s.router = chi.NewRouter()
	handler.New(service, logger, nil, s.jwt).Register(s.router)
}

func (s *HandlerSuite) token(userID id.UserID) string {
	s.T().Helper()
	token, err := s.jwt.GenerateAccessToken(uuid.UUID(userID), time.Hour)
	s.Require().NoError(err)
	return token
}

// do sends the request, attaching a bearer token when an actor is given.
func (s *HandlerSuite) do(req *http.Request, as id.UserID) *httptest.ResponseRecorder {
	s.T().Helper()
	if !as.IsZero() {
		req.Header.Set("Authorization", "Bearer "+s.token(as))
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) doJSON(method, path string, body any, as id.UserID) *httptest.ResponseRecorder {
	s.T().Helper()
	return s.do(testutil.NewJSONRequest(s.T(), method, path, body), as)
}

func (s *HandlerSuite) get(path string, as id.UserID) *httptest.ResponseRecorder {
	s.T().Helper()
	return s.do(testutil.NewRequest(s.T(), http.MethodGet, path), as)
}

// seedElection creates an election with two candidates through the service
// layer, using a clock pinned before the start so rosters are still open.
func (s *HandlerSuite) seedElection(start, end time.Time) (*electionmodels.Election, []*electionmodels.Candidate) {
	s.T().Helper()
	ctx := testutil.ClockContext(testutil.ActorContext(s.official), start.Add(-time.Hour))

	e, err := s.elections.CreateElection(ctx, electionmodels.Definition{
		Name:    "Municipal Election",
		StartAt: start,
		EndAt:   end,
	})
	s.Require().NoError(err)
	a, err := s.elections.AddCandidate(ctx, e.ID, electionmodels.CandidateInput{FullName: "Candidate A"})
	s.Require().NoError(err)
	b, err := s.elections.AddCandidate(ctx, e.ID, electionmodels.CandidateInput{FullName: "Candidate B"})
	s.Require().NoError(err)
	return e, []*electionmodels.Candidate{a, b}
}

func (s *HandlerSuite) activeElection() (*electionmodels.Election, []*electionmodels.Candidate) {
	now := time.Now()
	return s.seedElection(now.Add(-time.Hour), now.Add(time.Hour))
}

func (s *HandlerSuite) completedElection() (*electionmodels.Election, []*electionmodels.Candidate) {
	now := time.Now()
	return s.seedElection(now.Add(-3*time.Hour), now.Add(-time.Hour))
}

// verifiedVoter registers and verifies a fresh voter.
func (s *HandlerSuite) verifiedVoter() id.UserID {
	s.T().Helper()
	voter := id.NewUserID()
	_, err := s.identity.RegisterProfile(context.Background(), identitymodels.RegisterInput{
		UserID:      voter,
		FullName:    "Kofi Mensah",
		DateOfBirth: time.Date(1988, 7, 2, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.Require().NoError(s.identity.OnIdentityVerified(context.Background(), voter, identityservice.OutcomeApproved))
	return voter
}

// =============================================================================
// Authentication Tests
// =============================================================================

func (s *HandlerSuite) TestAuthentication() {
	s.Run("write endpoints reject missing tokens", func() {
		rr := s.doJSON(http.MethodPost, "/identity/register", map[string]string{
			"full_name":     "Ama Serwaa",
			"date_of_birth": "1991-02-11",
		}, id.UserID{})
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
		testutil.AssertErrorCode(s.T(), rr, "unauthorized")
	})

	s.Run("write endpoints reject garbage tokens", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identity/register", map[string]string{})
		req.Header.Set("Authorization", "Bearer not-a-token")
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized)
	})

	s.Run("public reads work without a token", func() {
		testutil.AssertStatus(s.T(), s.get("/elections", id.UserID{}), http.StatusOK)
	})
}

// =============================================================================
// Identity Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestRegisterEndpoint() {
	voter := id.NewUserID()
	body := map[string]string{
		"full_name":     "Ama Serwaa",
		"date_of_birth": "1991-02-11",
		"national_id":   "GHA-123456",
	}

	s.Run("registers a profile", func() {
		rr := s.doJSON(http.MethodPost, "/identity/register", body, voter)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		profile := testutil.UnmarshalResponse[identitymodels.Profile](s.T(), rr)
		s.Equal(voter, profile.UserID)
		s.Equal(identitymodels.VerificationPending, profile.VerificationStatus)
	})

	s.Run("rejects a duplicate registration", func() {
		rr := s.doJSON(http.MethodPost, "/identity/register", body, voter)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "bad_request")
	})

	s.Run("rejects a malformed date of birth", func() {
		bad := map[string]string{"full_name": "Ama Serwaa", "date_of_birth": "11/02/1991"}
		rr := s.doJSON(http.MethodPost, "/identity/register", bad, id.NewUserID())
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "bad_request")
	})

	s.Run("returns the caller's profile", func() {
		rr := s.get("/identity/me", voter)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		profile := testutil.UnmarshalResponse[identitymodels.Profile](s.T(), rr)
		s.Equal("Ama Serwaa", profile.FullName)
	})
}

// =============================================================================
// Role Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestRoleEndpoints() {
	subject := id.NewUserID()
	body := map[string]string{"user_id": subject.String(), "role": "election_official"}

	s.Run("non-admin cannot assign roles", func() {
		rr := s.doJSON(http.MethodPost, "/roles/assign", body, s.official)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		testutil.AssertErrorCode(s.T(), rr, "forbidden")
	})

	s.Run("admin assigns a role", func() {
		testutil.AssertStatus(s.T(), s.doJSON(http.MethodPost, "/roles/assign", body, s.admin), http.StatusCreated)
	})

	s.Run("admin revokes a role", func() {
		testutil.AssertStatus(s.T(), s.doJSON(http.MethodPost, "/roles/revoke", body, s.admin), http.StatusNoContent)
	})

	s.Run("unknown role fails validation", func() {
		bad := map[string]string{"user_id": subject.String(), "role": "emperor"}
		testutil.AssertStatus(s.T(), s.doJSON(http.MethodPost, "/roles/assign", bad, s.admin), http.StatusBadRequest)
	})
}

// =============================================================================
// Election Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestElectionEndpoints() {
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	body := map[string]any{
		"name":     "Regional Election",
		"start_at": start,
		"end_at":   start.Add(12 * time.Hour),
	}

	s.Run("voter cannot create an election", func() {
		rr := s.doJSON(http.MethodPost, "/elections", body, id.NewUserID())
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("official creates an election", func() {
		rr := s.doJSON(http.MethodPost, "/elections", body, s.official)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		created := testutil.UnmarshalResponse[handler.ElectionResponse](s.T(), rr)
		s.Equal("Regional Election", created.Name)
		s.Equal(electionmodels.StatusUpcoming, created.Status)
	})

	s.Run("inverted window fails validation", func() {
		bad := map[string]any{"name": "Bad", "start_at": start, "end_at": start.Add(-time.Hour)}
		testutil.AssertStatus(s.T(), s.doJSON(http.MethodPost, "/elections", bad, s.official), http.StatusBadRequest)
	})

	s.Run("unknown status filter fails validation", func() {
		testutil.AssertStatus(s.T(), s.get("/elections?status=finished", id.UserID{}), http.StatusBadRequest)
	})

	s.Run("status endpoint derives from the clock", func() {
		e, _ := s.activeElection()
		rr := s.get("/elections/"+e.ID.String()+"/status", id.UserID{})
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		status := testutil.UnmarshalResponse[handler.StatusResponse](s.T(), rr)
		s.Equal(electionmodels.StatusActive, status.Status)
	})

	s.Run("unknown election is not found", func() {
		rr := s.get("/elections/"+id.NewElectionID().String(), id.UserID{})
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
		testutil.AssertErrorCode(s.T(), rr, "not_found")
	})

	s.Run("malformed election id fails validation", func() {
		testutil.AssertStatus(s.T(), s.get("/elections/not-a-uuid", id.UserID{}), http.StatusBadRequest)
	})
}

// =============================================================================
// Voting Flow Tests
// =============================================================================

func (s *HandlerSuite) TestVotingFlow() {
	e, candidates := s.activeElection()
	voter := s.verifiedVoter()
	votesPath := "/elections/" + e.ID.String() + "/votes"
	body := map[string]string{"candidate_id": candidates[0].ID.String()}

	var voteHash string

	s.Run("verified voter casts a vote and gets a receipt", func() {
		rr := s.doJSON(http.MethodPost, votesPath, body, voter)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		receipt := testutil.UnmarshalResponse[ledgerReceipt](s.T(), rr)
		s.NotEmpty(receipt.VoteHash)
		voteHash = receipt.VoteHash
	})

	s.Run("has-voted reflects the cast", func() {
		rr := s.get(votesPath+"/me", voter)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		voted := testutil.UnmarshalResponse[handler.HasVotedResponse](s.T(), rr)
		s.True(voted.HasVoted)
	})

	s.Run("second vote conflicts", func() {
		rr := s.doJSON(http.MethodPost, votesPath, body, voter)
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		testutil.AssertErrorCode(s.T(), rr, "conflict")
	})

	s.Run("receipt verifies for its holder", func() {
		verify := map[string]string{"vote_hash": voteHash}
		rr := s.doJSON(http.MethodPost, "/elections/"+e.ID.String()+"/receipts/verify", verify, voter)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[handler.VerifyReceiptResponse](s.T(), rr)
		s.True(result.Valid)
	})

	s.Run("tampered receipt does not verify", func() {
		verify := map[string]string{"vote_hash": "deadbeef"}
		rr := s.doJSON(http.MethodPost, "/elections/"+e.ID.String()+"/receipts/verify", verify, voter)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[handler.VerifyReceiptResponse](s.T(), rr)
		s.False(result.Valid)
	})

	s.Run("unverified voter is rejected", func() {
		rr := s.doJSON(http.MethodPost, votesPath, body, id.NewUserID())
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})
}

// =============================================================================
// Results Gating Tests
// =============================================================================

func (s *HandlerSuite) TestResultsGating() {
	active, _ := s.activeElection()
	completed, _ := s.completedElection()
	activePath := "/elections/" + active.ID.String() + "/results"

	s.Run("active results are hidden from the public", func() {
		rr := s.get(activePath, id.UserID{})
		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
		testutil.AssertErrorCode(s.T(), rr, "invalid_state")
	})

	s.Run("active results are hidden from plain voters", func() {
		testutil.AssertStatus(s.T(), s.get(activePath, id.NewUserID()), http.StatusUnprocessableEntity)
	})

	s.Run("official sees active results", func() {
		rr := s.get(activePath, s.official)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[tally.Result](s.T(), rr)
		s.Equal("active", result.Status)
	})

	s.Run("completed results are public", func() {
		rr := s.get("/elections/"+completed.ID.String()+"/results", id.UserID{})
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		result := testutil.UnmarshalResponse[tally.Result](s.T(), rr)
		s.Equal("completed", result.Status)
		s.Len(result.Candidates, 2)
	})
}

// =============================================================================
// Party Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestPartyEndpoints() {
	body := map[string]string{"name": "Unity Party", "abbreviation": "UP"}

	s.Run("official cannot create a party", func() {
		testutil.AssertStatus(s.T(), s.doJSON(http.MethodPost, "/parties", body, s.official), http.StatusForbidden)
	})

	s.Run("admin creates a party", func() {
		rr := s.doJSON(http.MethodPost, "/parties", body, s.admin)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		party := testutil.UnmarshalResponse[electionmodels.Party](s.T(), rr)
		s.Equal("Unity Party", party.Name)
	})

	s.Run("parties are publicly listable", func() {
		testutil.AssertStatus(s.T(), s.get("/parties", id.UserID{}), http.StatusOK)
	})
}

type ledgerReceipt struct {
	VoteID   string    `json:"vote_id"`
	VoteHash string    `json:"vote_hash"`
	CastAt   time.Time `json:"cast_at"`
}
