package testutil

import (
	"testing"

	"github.com/hupe1980/blastdb/internal/binio"
	"github.com/stretchr/testify/assert"
)

func TestNucleotide(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.Nucleotide(500, 0)
	assert.Len(t, v, 500)
	for _, c := range v {
		assert.Contains(t, []byte{1, 2, 4, 8}, c)
	}

	v = rng.Nucleotide(500, 0.2)
	assert.Len(t, v, 500)
}

func TestProteinSet(t *testing.T) {
	rng := NewRNG(4711)

	set := rng.ProteinSet(8, 5, 10)
	assert.Len(t, set, 8)
	for _, s := range set {
		assert.GreaterOrEqual(t, len(s), 5)
		assert.LessOrEqual(t, len(s), 10)
		assert.NotContains(t, s, byte(0))
	}
}

func TestEncode_Layout(t *testing.T) {
	spec := VolumeSpec{Name: "v", Protein: true, Sequences: [][]byte{{1, 2, 3}, {4}}}
	f := spec.Encode()

	assert.Equal(t, uint32(4), binio.Uint32(f.Index))
	assert.Equal(t, uint32(1), binio.Uint32(f.Index[4:]))
	assert.Equal(t, []byte{0, 1, 2, 3, 0, 4, 0}, f.Sequence)
	assert.Equal(t, "seq0seq1", string(f.Header))
}
