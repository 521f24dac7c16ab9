package zkp

import (
	"github.com/consensys/gnark/frontend"
	mimc "github.com/consensys/gnark/std/hash/mimc"
)

// AgeTypeTag is the domain separator mixed into age nullifiers. It must match
// the tag used when deriving nullifiers natively at issuance time.
const AgeTypeTag = 1

// AgeCircuit proves "age >= MinimumAge at the given current date" without
// revealing the date of birth, and binds the statement to a one-time
// nullifier derived from the prover's private nullifier base.
//
// Public input ordering is significant: gnark emits public signals in
// declaration order, and the verification gateway reads the predicate at
// index 0 and the threshold at index 1.
type AgeCircuit struct {
	IsAdult      frontend.Variable `gnark:",public"`
	MinimumAge   frontend.Variable `gnark:",public"`
	Nullifier    frontend.Variable `gnark:",public"`
	CurrentYear  frontend.Variable `gnark:",public"`
	CurrentMonth frontend.Variable `gnark:",public"`
	CurrentDay   frontend.Variable `gnark:",public"`

	BirthYear     frontend.Variable
	BirthMonth    frontend.Variable
	BirthDay      frontend.Variable
	NullifierBase frontend.Variable
}

func (c *AgeCircuit) Define(api frontend.API) error {
	// Nullifier = MiMC(nullifierBase, typeTag). Same parameters as the native
	// gnark-crypto hasher used at issuance.
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.NullifierBase, AgeTypeTag)
	api.AssertIsEqual(c.Nullifier, hasher.Sum())

	// Whole-year age with birthday adjustment: subtract one year when the
	// current (month, day) precedes the birth (month, day).
	monthCmp := api.Cmp(c.CurrentMonth, c.BirthMonth) // -1, 0, 1
	dayCmp := api.Cmp(c.CurrentDay, c.BirthDay)
	monthBefore := api.IsZero(api.Add(monthCmp, 1))
	monthEqual := api.IsZero(monthCmp)
	dayBefore := api.IsZero(api.Add(dayCmp, 1))
	notYet := api.Add(monthBefore, api.Mul(monthEqual, dayBefore))

	age := api.Sub(api.Sub(c.CurrentYear, c.BirthYear), notYet)

	// IsAdult is constrained, not asserted true: a prover below the threshold
	// still produces a valid proof whose predicate signal is 0.
	ageCmp := api.Cmp(age, c.MinimumAge)
	belowThreshold := api.IsZero(api.Add(ageCmp, 1))
	api.AssertIsEqual(c.IsAdult, api.Sub(1, belowThreshold))

	return nil
}
