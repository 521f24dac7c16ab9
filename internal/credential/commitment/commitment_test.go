package commitment

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"proof-gateway/internal/credential/models"
)

type CommitmentSuite struct {
	suite.Suite
}

func TestCommitmentSuite(t *testing.T) {
	suite.Run(t, new(CommitmentSuite))
}

func (s *CommitmentSuite) digits() []int {
	return models.IdentityDigits("123456789012")
}

func (s *CommitmentSuite) TestDeterminism() {
	dob := models.DateParts{Year: 1995, Month: 6, Day: 15}

	first := Commit(dob, s.digits())
	second := Commit(dob, s.digits())
	s.Equal(0, first.Cmp(second), "identical attributes must commit identically")
}

func (s *CommitmentSuite) TestAttributeSensitivity() {
	dob := models.DateParts{Year: 1995, Month: 6, Day: 15}
	base := Commit(dob, s.digits())

	s.Run("different birth day", func() {
		other := Commit(models.DateParts{Year: 1995, Month: 6, Day: 16}, s.digits())
		s.NotEqual(0, base.Cmp(other))
	})

	s.Run("different identity number", func() {
		other := Commit(dob, models.IdentityDigits("123456789013"))
		s.NotEqual(0, base.Cmp(other))
	})
}

func (s *CommitmentSuite) TestNullifierDerivation() {
	dob := models.DateParts{Year: 1995, Month: 6, Day: 15}
	com := Commit(dob, s.digits())
	salt := big.NewInt(424242)
	base := NullifierBase(com, salt)

	s.Run("salt separates credentials", func() {
		other := NullifierBase(com, big.NewInt(424243))
		s.NotEqual(0, base.Cmp(other))
	})

	s.Run("type tag separates nullifiers", func() {
		age := Nullifier(base, 1)
		region := Nullifier(base, 3)
		s.NotEqual(0, age.Cmp(region))
	})

	s.Run("same type yields same nullifier", func() {
		s.Equal(0, Nullifier(base, 1).Cmp(Nullifier(base, 1)))
	})
}
