// Package zkp adapts the external proving stack (gnark groth16 over BN254)
// behind small interfaces so domain services never touch curve internals.
package zkp

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"golang.org/x/crypto/sha3"
)

// HashFields hashes field elements with MiMC over the BN254 scalar field.
// The native hasher shares parameters with the in-circuit gadget, so values
// derived here (commitments, nullifiers) can be re-derived inside a circuit.
func HashFields(elems ...*big.Int) *big.Int {
	h := mimc.NewMiMC()
	for _, e := range elems {
		var fe fr.Element
		fe.SetBigInt(e)
		b := fe.Bytes()
		_, _ = h.Write(b[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// FieldFromString maps an arbitrary string into the scalar field via
// Keccak256 followed by modular reduction.
func FieldFromString(s string) *big.Int {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(s))
	v := new(big.Int).SetBytes(h.Sum(nil))
	return v.Mod(v, fr.Modulus())
}

// ParseField parses a decimal field element string as used in public signal
// lists. Returns false when the string is not a valid base-10 integer.
func ParseField(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	return v.Mod(v, fr.Modulus()), true
}
