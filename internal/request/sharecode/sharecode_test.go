package sharecode

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "proof-gateway/pkg/domain-errors"
)

type ShareCodeSuite struct {
	suite.Suite
	service *Service
}

func TestShareCodeSuite(t *testing.T) {
	suite.Run(t, new(ShareCodeSuite))
}

func (s *ShareCodeSuite) SetupTest() {
	s.service = New("test-signing-key", "proof-gateway")
}

func (s *ShareCodeSuite) TestRoundTrip() {
	id := uuid.New()
	token, err := s.service.Generate(id, "age", "AAAABBBB", time.Now().Add(10*time.Minute))
	s.Require().NoError(err)

	claims, err := s.service.Validate(token)
	s.Require().NoError(err)
	s.Equal(id.String(), claims.RequestID)
	s.Equal("age", claims.VerificationType)
	s.Equal("AAAABBBB", claims.Code)
}

func (s *ShareCodeSuite) TestExpiredToken() {
	token, err := s.service.Generate(uuid.New(), "age", "AAAABBBB", time.Now().Add(-time.Minute))
	s.Require().NoError(err)

	_, err = s.service.Validate(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRequestExpired))
}

func (s *ShareCodeSuite) TestForeignKeyRejected() {
	other := New("different-key", "proof-gateway")
	token, err := other.Generate(uuid.New(), "age", "AAAABBBB", time.Now().Add(10*time.Minute))
	s.Require().NoError(err)

	_, err = s.service.Validate(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ShareCodeSuite) TestGarbageRejected() {
	_, err := s.service.Validate("not-a-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
