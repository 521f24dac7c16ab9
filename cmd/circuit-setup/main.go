// Command circuit-setup compiles the age circuit and runs the Groth16 trusted
// setup, writing the constraint system, proving key, and verifying key to the
// artifact directory the server loads at runtime.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"proof-gateway/internal/platform/logger"
	"proof-gateway/internal/zkp"
)

func main() {
	dir := flag.String("dir", "circuits", "artifact output directory")
	flag.Parse()

	log := logger.New()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Error("failed to create artifact directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	log.Info("compiling age circuit")
	var circuit zkp.AgeCircuit
	cs, err := frontend.Compile(fr.Modulus(), r1cs.NewBuilder, &circuit)
	if err != nil {
		log.Error("circuit compilation failed", "error", err)
		os.Exit(1)
	}
	log.Info("circuit compiled", "constraints", cs.GetNbConstraints())

	log.Info("running groth16 setup")
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		log.Error("groth16 setup failed", "error", err)
		os.Exit(1)
	}

	artifacts := map[string]io.WriterTo{
		"age_cs.bin": cs,
		"age_pk.bin": pk,
		"age_vk.bin": vk,
	}
	for name, artifact := range artifacts {
		if err := writeArtifact(filepath.Join(*dir, name), artifact); err != nil {
			log.Error("failed to write artifact", "file", name, "error", err)
			os.Exit(1)
		}
		log.Info("wrote artifact", "file", name)
	}
}

func writeArtifact(path string, artifact io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := artifact.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
