package zkp

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/suite"
)

type FieldSuite struct {
	suite.Suite
}

func TestFieldSuite(t *testing.T) {
	suite.Run(t, new(FieldSuite))
}

func (s *FieldSuite) TestHashFieldsDeterministic() {
	a := HashFields(big.NewInt(1995), big.NewInt(6), big.NewInt(15))
	b := HashFields(big.NewInt(1995), big.NewInt(6), big.NewInt(15))
	s.Equal(0, a.Cmp(b))
}

func (s *FieldSuite) TestHashFieldsOrderSensitive() {
	a := HashFields(big.NewInt(1), big.NewInt(2))
	b := HashFields(big.NewInt(2), big.NewInt(1))
	s.NotEqual(0, a.Cmp(b))
}

func (s *FieldSuite) TestHashFieldsInField() {
	h := HashFields(big.NewInt(42))
	s.True(h.Cmp(fr.Modulus()) < 0)
	s.True(h.Sign() >= 0)
}

func (s *FieldSuite) TestFieldFromString() {
	a := FieldFromString("some-identity-value")
	b := FieldFromString("some-identity-value")
	s.Equal(0, a.Cmp(b))
	s.True(a.Cmp(fr.Modulus()) < 0)

	c := FieldFromString("some-other-value")
	s.NotEqual(0, a.Cmp(c))
}

func (s *FieldSuite) TestParseField() {
	v, ok := ParseField("12345")
	s.Require().True(ok)
	s.Equal(int64(12345), v.Int64())

	_, ok = ParseField("not-a-number")
	s.False(ok)

	_, ok = ParseField("")
	s.False(ok)
}
