package zkp

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// AgeWitness carries the private and public inputs for a server-side age
// proof. Only the age circuit is proven server-side; other types stay
// client-side so the witness never leaves the prover.
type AgeWitness struct {
	BirthYear     int
	BirthMonth    int
	BirthDay      int
	NullifierBase *big.Int

	CurrentYear  int
	CurrentMonth int
	CurrentDay   int
	MinimumAge   int
}

// AgeProof is the wire form handed back to the prover.
type AgeProof struct {
	Proof         string
	PublicSignals []string
	Nullifier     string
	Predicate     bool
}

// Prover generates groth16 proofs for circuits with full artifacts on disk.
type Prover struct {
	artifacts *Artifacts
}

func NewProver(artifacts *Artifacts) *Prover {
	return &Prover{artifacts: artifacts}
}

// ProveAge builds the age witness, runs groth16 proving, and returns the
// serialized proof with its public signals.
func (p *Prover) ProveAge(ctx context.Context, w AgeWitness) (*AgeProof, error) {
	const circuit = "age"

	cs, err := p.artifacts.ConstraintSystem(circuit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCircuitUnavailable, circuit)
		}
		return nil, err
	}
	pk, err := p.artifacts.ProvingKey(circuit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCircuitUnavailable, circuit)
		}
		return nil, err
	}

	if w.NullifierBase == nil {
		return nil, fmt.Errorf("%w: nullifier base is required", ErrMalformedProof)
	}

	age := wholeYears(w)
	predicate := age >= w.MinimumAge
	nullifier := HashFields(w.NullifierBase, big.NewInt(AgeTypeTag))

	assignment := &AgeCircuit{
		IsAdult:       boolToInt(predicate),
		MinimumAge:    w.MinimumAge,
		Nullifier:     nullifier,
		CurrentYear:   w.CurrentYear,
		CurrentMonth:  w.CurrentMonth,
		CurrentDay:    w.CurrentDay,
		BirthYear:     w.BirthYear,
		BirthMonth:    w.BirthMonth,
		BirthDay:      w.BirthDay,
		NullifierBase: w.NullifierBase,
	}

	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proof, err := groth16.Prove(cs, pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("groth16 prove: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize proof: %w", err)
	}

	pubWitness, err := fullWitness.Public()
	if err != nil {
		return nil, fmt.Errorf("extract public witness: %w", err)
	}
	vector, ok := pubWitness.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected witness vector type %T", pubWitness.Vector())
	}
	signals := make([]string, len(vector))
	for i := range vector {
		signals[i] = vector[i].String()
	}

	return &AgeProof{
		Proof:         base64.StdEncoding.EncodeToString(buf.Bytes()),
		PublicSignals: signals,
		Nullifier:     nullifier.String(),
		Predicate:     predicate,
	}, nil
}

// wholeYears computes age in whole years with birthday adjustment, mirroring
// the in-circuit arithmetic.
func wholeYears(w AgeWitness) int {
	age := w.CurrentYear - w.BirthYear
	if w.CurrentMonth < w.BirthMonth || (w.CurrentMonth == w.BirthMonth && w.CurrentDay < w.BirthDay) {
		age--
	}
	return age
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
