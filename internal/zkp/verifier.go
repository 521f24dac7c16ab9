package zkp

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
)

// ErrCircuitUnavailable marks a circuit whose key material is not provisioned.
// Fatal for the caller: no retry at this layer can succeed.
var ErrCircuitUnavailable = errors.New("circuit artifacts unavailable")

// ErrMalformedProof marks input that cannot be deserialized at all, as opposed
// to a well-formed proof that fails verification.
var ErrMalformedProof = errors.New("malformed proof")

// Verifier checks groth16 proofs against provisioned circuit artifacts.
type Verifier struct {
	artifacts *Artifacts
	logger    *slog.Logger
}

func NewVerifier(artifacts *Artifacts, logger *slog.Logger) *Verifier {
	return &Verifier{artifacts: artifacts, logger: logger}
}

// Verify reports whether the proof is cryptographically valid for the given
// circuit and public signals. A well-formed proof that fails pairing checks
// returns (false, nil): cryptographic invalidity is an outcome, not an error.
func (v *Verifier) Verify(ctx context.Context, circuit string, proofB64 string, publicSignals []string) (bool, error) {
	vk, err := v.artifacts.VerifyingKey(circuit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("%w: %s", ErrCircuitUnavailable, circuit)
		}
		return false, err
	}

	proofBytes, err := base64.StdEncoding.DecodeString(proofB64)
	if err != nil {
		return false, fmt.Errorf("%w: proof is not valid base64", ErrMalformedProof)
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}

	pubWitness, err := publicWitness(publicSignals)
	if err != nil {
		return false, err
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	if err := groth16.Verify(proof, vk, pubWitness); err != nil {
		v.logger.DebugContext(ctx, "proof rejected", "circuit", circuit, "error", err)
		return false, nil
	}
	return true, nil
}

// publicWitness builds a gnark public witness from decimal signal strings.
func publicWitness(signals []string) (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	values := make(chan any, len(signals))
	for _, s := range signals {
		v, ok := ParseField(s)
		if !ok {
			return nil, fmt.Errorf("%w: public signal %q is not a field element", ErrMalformedProof, s)
		}
		values <- v
	}
	close(values)

	if err := w.Fill(len(signals), 0, values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	return w, nil
}
