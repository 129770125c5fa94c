package gilist

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Text(t *testing.T) {
	l, err := Read(strings.NewReader("# swissprot subset\n129295\n\n  3091 # trailing\n"), "sp.gil")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), l.Len())
	assert.True(t, l.Contains(129295))
	assert.True(t, l.Contains(3091))
	assert.False(t, l.Contains(1))
	assert.Equal(t, []string{"sp.gil"}, l.Sources())
}

func TestRead_TextCorrupt(t *testing.T) {
	_, err := Read(strings.NewReader("12\nabc\n"), "bad.gil")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRead_Binary(t *testing.T) {
	src := New("src", 5, 1, 70000)
	l, err := Read(bytes.NewReader(src.EncodeBinary()), "x.gil")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), l.Len())
	assert.True(t, l.Contains(70000))

	truncated := src.EncodeBinary()[:10]
	_, err = Read(bytes.NewReader(truncated), "x.gil")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRead_Compressed(t *testing.T) {
	payload := New("src", 10, 20, 30).EncodeBinary()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte("10\n20\n30\n"), nil)
	require.NoError(t, enc.Close())

	var lz bytes.Buffer
	lw := lz4.NewWriter(&lz)
	_, err = lw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, lw.Close())

	for name, data := range map[string][]byte{
		"a.gil.gz":  gz.Bytes(),
		"a.gil.zst": zst,
		"a.gil.lz4": lz.Bytes(),
	} {
		l, err := Read(bytes.NewReader(data), name)
		require.NoError(t, err, name)
		assert.Equal(t, uint64(3), l.Len(), name)
		assert.True(t, l.Contains(20), name)
	}
}

func TestUnionIntersect(t *testing.T) {
	a := New("a", 1, 2, 3)
	b := New("b", 3, 4)

	u := a.Union(b)
	assert.Equal(t, uint64(4), u.Len())
	assert.Equal(t, []string{"a", "b"}, u.Sources())

	i := a.Intersect(b)
	assert.Equal(t, uint64(1), i.Len())
	assert.True(t, i.Contains(3))

	// Operands are not modified.
	assert.Equal(t, uint64(3), a.Len())
}

func TestLoad(t *testing.T) {
	s := blobstore.NewMemoryStore()
	s.Put("dir/sub.gil", []byte("42\n"))

	l, err := Load(context.Background(), s, "dir/sub.gil")
	require.NoError(t, err)
	assert.True(t, l.Contains(42))

	_, err = Load(context.Background(), s, "missing.gil")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
