package signer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SignerSuite struct {
	suite.Suite
	signer *Signer
}

func TestSignerSuite(t *testing.T) {
	suite.Run(t, new(SignerSuite))
}

func (s *SignerSuite) SetupTest() {
	var err error
	s.signer, err = Generate()
	s.Require().NoError(err)
}

func (s *SignerSuite) TestSignVerifyRoundTrip() {
	commitment := big.NewInt(123456789)

	sig, err := s.signer.Sign(commitment)
	s.Require().NoError(err)
	s.NotEmpty(sig.Bytes)
	s.NotEmpty(sig.R8X)
	s.NotEmpty(sig.S)

	valid, err := s.signer.Verify(commitment, sig.Bytes)
	s.Require().NoError(err)
	s.True(valid)
}

func (s *SignerSuite) TestVerifyRejectsWrongMessage() {
	sig, err := s.signer.Sign(big.NewInt(111))
	s.Require().NoError(err)

	valid, err := s.signer.Verify(big.NewInt(222), sig.Bytes)
	s.Require().NoError(err)
	s.False(valid)
}

func (s *SignerSuite) TestVerifyRejectsForeignKey() {
	other, err := Generate()
	s.Require().NoError(err)

	commitment := big.NewInt(333)
	sig, err := other.Sign(commitment)
	s.Require().NoError(err)

	valid, err := s.signer.Verify(commitment, sig.Bytes)
	s.Require().NoError(err)
	s.False(valid)
}

func (s *SignerSuite) TestPublicKeyCoords() {
	x, y := s.signer.PublicKeyCoords()
	s.NotEmpty(x)
	s.NotEmpty(y)
}
