package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"proof-gateway/internal/request/models"
	"proof-gateway/internal/request/service"
	"proof-gateway/internal/request/sharecode"
	"proof-gateway/internal/request/store"
	verificationmodels "proof-gateway/internal/verification/models"
	"proof-gateway/pkg/testutil"
)

// acceptGateway reports every proof as verified.
type acceptGateway struct{}

func (acceptGateway) Verify(context.Context, verificationmodels.VerifyInput) (*verificationmodels.VerifyResult, error) {
	return &verificationmodels.VerifyResult{
		Verified:       true,
		Attribute:      "age >= 18",
		VerificationID: uuid.NewString(),
	}, nil
}

type RequestHandlerSuite struct {
	suite.Suite
	router chi.Router
	now    time.Time
}

func TestRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerSuite))
}

func (s *RequestHandlerSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := service.New(store.NewInMemory(), acceptGateway{},
		sharecode.New("test-key", "proof-gateway"), slog.Default(),
		service.WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, slog.Default()).Register(s.router)
}

func (s *RequestHandlerSuite) createRequest() *models.CreateResult {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/request",
		map[string]string{"type": "age", "verifierName": "acme-bank"})
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusCreated)
	return testutil.UnmarshalResponse[models.CreateResult](s.T(), rec)
}

func (s *RequestHandlerSuite) TestCreateAndGet() {
	created := s.createRequest()
	s.NotEmpty(created.Code)
	s.NotEmpty(created.ShareableCode)

	rec := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/verify/request/"+created.RequestID.String()))
	testutil.AssertStatus(s.T(), rec, http.StatusOK)

	got := testutil.UnmarshalResponse[models.VerificationRequest](s.T(), rec)
	s.Equal(models.StatusPending, got.Status)
}

func (s *RequestHandlerSuite) TestCreateRejectsUnknownType() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/request",
		map[string]string{"type": "height", "verifierName": "acme-bank"})
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rec, "validation_error")
}

func (s *RequestHandlerSuite) TestGetExpiredProjection() {
	created := s.createRequest()
	s.now = s.now.Add(11 * time.Minute)

	rec := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/verify/request/"+created.RequestID.String()))
	testutil.AssertStatus(s.T(), rec, http.StatusOK)

	got := testutil.UnmarshalResponse[models.VerificationRequest](s.T(), rec)
	s.Equal(models.StatusExpired, got.Status)
}

func (s *RequestHandlerSuite) TestComplete() {
	created := s.createRequest()

	payload := map[string]any{
		"proof":         "cHJvb2Y=",
		"publicSignals": []string{"1", "18"},
		"nullifier":     "n-1",
	}
	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/verify/request/"+created.RequestID.String()+"/complete", payload))
	testutil.AssertStatus(s.T(), rec, http.StatusOK)

	result := testutil.UnmarshalResponse[models.CompleteResult](s.T(), rec)
	s.Equal(models.StatusCompleted, result.Status)
	s.True(result.Verified)

	// Finalization is single use.
	rec = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/verify/request/"+created.RequestID.String()+"/complete", payload))
	testutil.AssertStatus(s.T(), rec, http.StatusConflict)
	testutil.AssertErrorCode(s.T(), rec, "already_finalized")
}

func (s *RequestHandlerSuite) TestCompleteExpired() {
	created := s.createRequest()
	s.now = s.now.Add(11 * time.Minute)

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/verify/request/"+created.RequestID.String()+"/complete", map[string]any{
			"proof":         "cHJvb2Y=",
			"publicSignals": []string{"1", "18"},
			"nullifier":     "n-1",
		}))
	testutil.AssertStatus(s.T(), rec, http.StatusGone)
	testutil.AssertErrorCode(s.T(), rec, "request_expired")
}

func (s *RequestHandlerSuite) TestResolveShareCode() {
	created := s.createRequest()

	rec := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/verify/request/resolve", map[string]string{"shareableCode": created.ShareableCode}))
	testutil.AssertStatus(s.T(), rec, http.StatusOK)

	resolved := testutil.UnmarshalResponse[models.VerificationRequest](s.T(), rec)
	s.Equal(created.RequestID, resolved.ID)
}

func (s *RequestHandlerSuite) TestGetUnknownRequest() {
	rec := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/verify/request/"+uuid.NewString()))
	testutil.AssertStatus(s.T(), rec, http.StatusNotFound)
}
