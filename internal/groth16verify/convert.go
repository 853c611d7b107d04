package groth16verify

import (
	"fmt"

	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/ccoin/mixer/pkg/types"
)

// ConvertVerifyingKey adapts gnark's native BN254 Groth16 verifying key —
// the concrete type groth16.Setup returns for a circuit compiled over
// ecc.BN254.ScalarField() — into this package's VerifyingKey. gnark never
// exposes alpha and beta as separate points: by the time Setup returns,
// they have already been folded into E = e(alpha, beta), so this reads E,
// the gamma/delta points, and the IC commitment vector (G1.K) directly
// rather than attempting to reconstruct points gnark has already discarded.
func ConvertVerifyingKey(src *groth16bn254.VerifyingKey) (VerifyingKey, error) {
	var vk VerifyingKey

	want := types.PublicInputCount + 1
	if len(src.G1.K) != want {
		return vk, fmt.Errorf("groth16verify: circuit has %d IC entries, need %d for %d public inputs",
			len(src.G1.K), want, types.PublicInputCount)
	}

	vk.AlphaBeta = src.E
	vk.Gamma = src.G2.Gamma
	vk.Delta = src.G2.Delta
	copy(vk.IC[:], src.G1.K)
	return vk, nil
}
