package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Protein returns n random NCBIstdaa residue codes for the 20 standard
// amino acids.
func (r *RNG) Protein(n int) []byte {
	const standard = "ACDEFGHIKLMNPQRSTVWY"
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = stdaaCode(standard[r.rand.Intn(len(standard))])
	}
	return out
}

// Nucleotide returns n random NCBI4na codes. Each position starts an
// ambiguity run with probability ambRate.
func (r *RNG) Nucleotide(n int, ambRate float64) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if r.rand.Float64() < ambRate {
			code := byte(r.rand.Intn(15) + 1)
			run := r.rand.Intn(40) + 1
			for j := 0; j < run && i < n; j++ {
				out[i] = code
				i++
			}
			i--
			continue
		}
		out[i] = byte(1) << r.rand.Intn(4)
	}
	return out
}

// ProteinSet returns n random protein sequences with lengths in [minLen, maxLen].
func (r *RNG) ProteinSet(n, minLen, maxLen int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = r.Protein(minLen + r.Intn(maxLen-minLen+1))
	}
	return out
}

// NucleotideSet returns n random nucleotide sequences with lengths in
// [minLen, maxLen].
func (r *RNG) NucleotideSet(n, minLen, maxLen int, ambRate float64) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = r.Nucleotide(minLen+r.Intn(maxLen-minLen+1), ambRate)
	}
	return out
}

func stdaaCode(letter byte) byte {
	const letters = "-ABCDEFGHIKLMNPQRSTVWXYZU*OJ"
	for i := 0; i < len(letters); i++ {
		if letters[i] == letter {
			return byte(i)
		}
	}
	return 21
}
