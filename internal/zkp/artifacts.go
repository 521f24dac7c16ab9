package zkp

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
)

// Artifacts resolves and caches per-circuit key material from a directory.
// Files follow the <name>_vk.bin / <name>_pk.bin / <name>_cs.bin convention.
// Construction is explicit; there are no ambient singletons.
type Artifacts struct {
	dir string

	mu  sync.Mutex
	vks map[string]groth16.VerifyingKey
	pks map[string]groth16.ProvingKey
	css map[string]constraint.ConstraintSystem
}

// CircuitStatus reports which artifacts exist for one circuit.
type CircuitStatus struct {
	VerifyingKey bool `json:"verifying_key"`
	ProvingKey   bool `json:"proving_key"`
	Constraints  bool `json:"constraints"`
	Ready        bool `json:"ready"`
}

func NewArtifacts(dir string) *Artifacts {
	return &Artifacts{
		dir: dir,
		vks: make(map[string]groth16.VerifyingKey),
		pks: make(map[string]groth16.ProvingKey),
		css: make(map[string]constraint.ConstraintSystem),
	}
}

func (a *Artifacts) vkPath(name string) string { return filepath.Join(a.dir, name+"_vk.bin") }
func (a *Artifacts) pkPath(name string) string { return filepath.Join(a.dir, name+"_pk.bin") }
func (a *Artifacts) csPath(name string) string { return filepath.Join(a.dir, name+"_cs.bin") }

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Provisioned reports whether the circuit can verify proofs (vk present).
func (a *Artifacts) Provisioned(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.vks[name]; ok {
		return true
	}
	return exists(a.vkPath(name))
}

// Status reports artifact presence for the given circuit names.
func (a *Artifacts) Status(names ...string) map[string]CircuitStatus {
	out := make(map[string]CircuitStatus, len(names))
	for _, name := range names {
		st := CircuitStatus{
			VerifyingKey: exists(a.vkPath(name)),
			ProvingKey:   exists(a.pkPath(name)),
			Constraints:  exists(a.csPath(name)),
		}
		st.Ready = st.VerifyingKey
		out[name] = st
	}
	return out
}

// VerifyingKey loads and caches the verifying key for a circuit.
func (a *Artifacts) VerifyingKey(name string) (groth16.VerifyingKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if vk, ok := a.vks[name]; ok {
		return vk, nil
	}

	f, err := os.Open(a.vkPath(name))
	if err != nil {
		return nil, fmt.Errorf("open verifying key for %s: %w", name, err)
	}
	defer f.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read verifying key for %s: %w", name, err)
	}
	a.vks[name] = vk
	return vk, nil
}

// ProvingKey loads and caches the proving key for a circuit.
func (a *Artifacts) ProvingKey(name string) (groth16.ProvingKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pk, ok := a.pks[name]; ok {
		return pk, nil
	}

	f, err := os.Open(a.pkPath(name))
	if err != nil {
		return nil, fmt.Errorf("open proving key for %s: %w", name, err)
	}
	defer f.Close()

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read proving key for %s: %w", name, err)
	}
	a.pks[name] = pk
	return pk, nil
}

// ConstraintSystem loads and caches the compiled circuit for a name.
func (a *Artifacts) ConstraintSystem(name string) (constraint.ConstraintSystem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cs, ok := a.css[name]; ok {
		return cs, nil
	}

	f, err := os.Open(a.csPath(name))
	if err != nil {
		return nil, fmt.Errorf("open constraint system for %s: %w", name, err)
	}
	defer f.Close()

	cs := groth16.NewCS(ecc.BN254)
	if _, err := cs.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read constraint system for %s: %w", name, err)
	}
	a.css[name] = cs
	return cs, nil
}
