// Package commitment derives the deterministic, content-derived credential
// commitment. Identical attributes always yield the identical commitment:
// commitments are stable identifiers, not randomized secrets.
package commitment

import (
	"math/big"

	"proof-gateway/internal/credential/models"
	"proof-gateway/internal/zkp"
)

// Commit hashes the structured attribute witnesses into one field element:
// per-group sub-hashes (date-of-birth triple, identity number in two halves)
// combined by a final hash. Pure; callers validate and encode inputs first.
func Commit(dob models.DateParts, identityDigits []int) *big.Int {
	dobHash := zkp.HashFields(
		big.NewInt(int64(dob.Year)),
		big.NewInt(int64(dob.Month)),
		big.NewInt(int64(dob.Day)),
	)

	half := len(identityDigits) / 2
	firstHalf := zkp.HashFields(toFields(identityDigits[:half])...)
	secondHalf := zkp.HashFields(toFields(identityDigits[half:])...)

	return zkp.HashFields(dobHash, firstHalf, secondHalf)
}

// NullifierBase seals the commitment with a per-issuance salt. Per-type
// nullifiers are later derived as hash(nullifierBase, typeTag).
func NullifierBase(commitment, salt *big.Int) *big.Int {
	return zkp.HashFields(commitment, salt)
}

// Nullifier derives the per-type nullifier from a base and type tag.
func Nullifier(base *big.Int, typeTag int64) *big.Int {
	return zkp.HashFields(base, big.NewInt(typeTag))
}

func toFields(digits []int) []*big.Int {
	out := make([]*big.Int, len(digits))
	for i, d := range digits {
		out[i] = big.NewInt(int64(d))
	}
	return out
}
