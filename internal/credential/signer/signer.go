// Package signer binds commitments to an issuer key with a real EdDSA
// signature over BabyJubJub, replacing any hash-based placeholder binding.
package signer

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

// Signature is the wire form of an issuer signature: an opaque blob for
// transport plus the (R8, S) decomposition circuits consume.
type Signature struct {
	Bytes string
	R8X   string
	R8Y   string
	S     string
}

// Signer holds the issuer's EdDSA private key. Keys live in process for this
// deployment; a production issuer would back this with a KMS.
type Signer struct {
	priv *eddsa.PrivateKey
}

// Generate creates a fresh issuer keypair.
func Generate() (*Signer, error) {
	priv, err := eddsa.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate eddsa key: %w", err)
	}
	return &Signer{priv: priv}, nil
}

// PublicKeyCoords returns the affine coordinates of the issuer public key as
// decimal strings, the form persisted on the Issuer record.
func (s *Signer) PublicKeyCoords() (x, y string) {
	pub := s.priv.PublicKey
	return pub.A.X.String(), pub.A.Y.String()
}

// Sign signs a commitment field element with MiMC as the inner hash.
func (s *Signer) Sign(commitment *big.Int) (Signature, error) {
	var fe fr.Element
	fe.SetBigInt(commitment)
	msg := fe.Bytes()

	sigBin, err := s.priv.Sign(msg[:], mimc.NewMiMC())
	if err != nil {
		return Signature{}, fmt.Errorf("sign commitment: %w", err)
	}

	var sig eddsa.Signature
	if _, err := sig.SetBytes(sigBin); err != nil {
		return Signature{}, fmt.Errorf("decompose signature: %w", err)
	}

	return Signature{
		Bytes: base64.StdEncoding.EncodeToString(sigBin),
		R8X:   sig.R.X.String(),
		R8Y:   sig.R.Y.String(),
		S:     new(big.Int).SetBytes(sig.S[:]).String(),
	}, nil
}

// Verify checks an issuer signature over a commitment.
func (s *Signer) Verify(commitment *big.Int, sigB64 string) (bool, error) {
	sigBin, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("decode signature: %w", err)
	}

	var fe fr.Element
	fe.SetBigInt(commitment)
	msg := fe.Bytes()

	return s.priv.PublicKey.Verify(sigBin, msg[:], mimc.NewMiMC())
}
