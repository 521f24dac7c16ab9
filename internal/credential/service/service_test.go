package service

import (
	"context"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"proof-gateway/internal/credential/models"
	"proof-gateway/internal/credential/signer"
	"proof-gateway/internal/credential/store"
	credentialstore "proof-gateway/internal/credential/store/credential"
	issuerstore "proof-gateway/internal/credential/store/issuer"
	dErrors "proof-gateway/pkg/domain-errors"
)

type IssuanceSuite struct {
	suite.Suite
	ctx         context.Context
	issuers     *issuerstore.InMemory
	credentials *credentialstore.InMemory
	signer      *signer.Signer
	service     *Service
	now         time.Time
}

func TestIssuanceSuite(t *testing.T) {
	suite.Run(t, new(IssuanceSuite))
}

func (s *IssuanceSuite) SetupTest() {
	s.ctx = context.Background()
	s.issuers = issuerstore.NewInMemory()
	s.credentials = credentialstore.NewInMemory()
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var err error
	s.signer, err = signer.Generate()
	s.Require().NoError(err)

	_, err = store.SeedBootstrapIssuer(s.ctx, s.issuers, s.signer)
	s.Require().NoError(err)

	s.service, err = New(s.issuers, s.credentials, s.signer, slog.Default(),
		WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
}

func (s *IssuanceSuite) attributes() models.RawAttributes {
	return models.RawAttributes{
		Name:           "Asha Verma",
		DateOfBirth:    "1995-06-15",
		IdentityNumber: "123456789012",
		Pincode:        "560001",
	}
}

func (s *IssuanceSuite) TestIssue() {
	s.Run("returns commitment, witness and signed assertion", func() {
		result, err := s.service.Issue(s.ctx, s.attributes())
		s.Require().NoError(err)

		s.NotEmpty(result.Commitment)
		s.NotEmpty(result.Witness.Salt)
		s.NotEmpty(result.Witness.NullifierBase)
		s.Equal(29, result.Witness.Age)
		s.Equal(56, result.Witness.RegionCode)
		s.Equal(s.now.Add(Validity), result.ExpiresAt)
		s.NotEmpty(result.Assertion.Signature)

		com, ok := parseCommitment(result.Commitment)
		s.Require().True(ok)
		valid, err := s.signer.Verify(com, result.Assertion.Signature)
		s.Require().NoError(err)
		s.True(valid)
	})

	s.Run("persists only anonymized fields", func() {
		result, err := s.service.Issue(s.ctx, models.RawAttributes{
			Name:           "Ravi Kumar",
			DateOfBirth:    "1990-01-20",
			IdentityNumber: "999888777666",
		})
		s.Require().NoError(err)

		stored, err := s.credentials.FindByCommitment(s.ctx, result.Commitment)
		s.Require().NoError(err)
		s.Equal(CredentialType, stored.Type)
		s.Equal(result.Commitment, stored.Commitment)
		s.False(stored.Revoked)
	})

	s.Run("rejects duplicate attribute sets", func() {
		_, err := s.service.Issue(s.ctx, s.attributes())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects invalid attributes before touching stores", func() {
		_, err := s.service.Issue(s.ctx, models.RawAttributes{Name: "X"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *IssuanceSuite) TestNoActiveIssuer() {
	issuers, err := s.service.ListIssuers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(issuers, 1)
	s.Require().NoError(s.issuers.SetActive(s.ctx, issuers[0].ID, false))

	_, err = s.service.Issue(s.ctx, s.attributes())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNoIssuerAvailable))
}

func (s *IssuanceSuite) TestCheckCommitment() {
	result, err := s.service.Issue(s.ctx, s.attributes())
	s.Require().NoError(err)

	s.Run("live credential is valid", func() {
		status, err := s.service.CheckCommitment(s.ctx, result.Commitment)
		s.Require().NoError(err)
		s.True(status.Valid)
	})

	s.Run("unknown commitment is invalid, not an error", func() {
		status, err := s.service.CheckCommitment(s.ctx, "12345")
		s.Require().NoError(err)
		s.False(status.Valid)
	})

	s.Run("expired credential is invalid", func() {
		s.now = s.now.Add(Validity + time.Hour)
		status, err := s.service.CheckCommitment(s.ctx, result.Commitment)
		s.Require().NoError(err)
		s.False(status.Valid)
		s.now = s.now.Add(-(Validity + time.Hour))
	})

	s.Run("revoked credential is invalid", func() {
		s.Require().NoError(s.service.Revoke(s.ctx, result.Commitment))
		status, err := s.service.CheckCommitment(s.ctx, result.Commitment)
		s.Require().NoError(err)
		s.False(status.Valid)
		s.Require().NotNil(status.Revoked)
		s.True(*status.Revoked)
	})
}

func parseCommitment(value string) (*big.Int, bool) {
	return new(big.Int).SetString(value, 10)
}

func (s *IssuanceSuite) TestRevokeUnknownCommitment() {
	err := s.service.Revoke(s.ctx, "does-not-exist")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
