package dbgen

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// randomUUID draws a version-4 UUID using rng as the entropy source, so
// that UUID generation participates in the same chunk-local substream
// determinism as every other rand.* function instead of reading from
// the process-global crypto source google/uuid defaults to.
func randomUUID(rng *rand.Rand) uuid.UUID {
	var id uuid.UUID
	_, _ = rng.Read(id[:])
	id[6] = (id[6] & 0x0f) | 0x40 // version 4
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

// randFiniteFloat64 draws a uniformly random finite float64 by rejecting
// bit patterns that decode to NaN or +/-Inf.
func randFiniteFloat64(rng *rand.Rand) float64 {
	for {
		bits := rng.Uint64()
		f := math.Float64frombits(bits)
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
}

// randFiniteFloat32 draws a uniformly random finite float32 bit pattern
// and widens it to float64, for rand.finite_f32().
func randFiniteFloat32(rng *rand.Rand) float64 {
	for {
		bits := rng.Uint32()
		f := math.Float32frombits(bits)
		if !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0) {
			return float64(f)
		}
	}
}
