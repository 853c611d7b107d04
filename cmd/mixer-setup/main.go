// Command mixer-setup compiles the withdrawal circuit and runs a
// single-party Groth16 trusted setup over it, writing the proving and
// verifying keys to disk in gnark's native binary encoding, then converts
// the verifying key into this repository's own wire format
// (groth16verify.ConvertVerifyingKey) and writes that alongside them so
// mixerd can load it directly. Grounded on the teacher pack's
// pkg/setup.DevSetup (_examples/MuriData-muri-zkproof/pkg/setup/setup.go)
// and its single-party-trust warning banner; narrowed to one circuit and
// one backend since the withdrawal circuit has no PLONK or multi-party
// variant here.
package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/ccoin/mixer/internal/circuit"
	"github.com/ccoin/mixer/internal/groth16verify"
)

func main() {
	outDir := flag.String("out", ".", "output directory for the proving/verifying keys")
	flag.Parse()

	if err := run(*outDir); err != nil {
		fmt.Fprintf(os.Stderr, "mixer-setup: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	fmt.Println("================================================================")
	fmt.Println("  WARNING: single-party setup (1-of-1 trust assumption)")
	fmt.Println("  Do not use these keys for a production pool.")
	fmt.Println("================================================================")

	fmt.Printf("compiling withdrawal circuit (depth %d)...\n", circuit.TreeDepth)
	var wc circuit.WithdrawCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &wc)
	if err != nil {
		return fmt.Errorf("compile circuit: %w", err)
	}
	fmt.Printf("compiled: %d constraints\n", ccs.GetNbConstraints())

	fmt.Println("running groth16 setup...")
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("groth16 setup: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeTo(filepath.Join(outDir, "withdraw_prover.key"), pk); err != nil {
		return fmt.Errorf("write proving key: %w", err)
	}
	if err := writeTo(filepath.Join(outDir, "withdraw_verifier.key"), vk); err != nil {
		return fmt.Errorf("write verifying key: %w", err)
	}
	fmt.Printf("wrote %s and %s\n", "withdraw_prover.key", "withdraw_verifier.key")

	bn254VK, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return fmt.Errorf("unexpected verifying key type %T for a BN254 circuit", vk)
	}
	poolVK, err := groth16verify.ConvertVerifyingKey(bn254VK)
	if err != nil {
		return fmt.Errorf("convert verifying key: %w", err)
	}
	poolVKPath := filepath.Join(outDir, "pool_verifying_key.gob")
	if err := writePoolVerifyingKey(poolVKPath, poolVK); err != nil {
		return fmt.Errorf("write pool verifying key: %w", err)
	}
	fmt.Printf("wrote %s — pass this to mixerd's -verifying-key flag\n", poolVKPath)
	return nil
}

func writeTo(path string, v io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = v.WriteTo(f)
	return err
}

// writePoolVerifyingKey gob-encodes the converted verifying key. Its fields
// are fixed-size gnark-crypto curve/field element arrays, so gob's
// reflection-based encoding round-trips it without needing a bespoke wire
// format on top of the one groth16verify.VerifyingKey already defines.
func writePoolVerifyingKey(path string, vk groth16verify.VerifyingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(vk)
}
