package binio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteUint32(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint32(&buf, 0x01020304))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())

	v, err := ReadUint32(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)
}

func TestReadWriteUint64(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint64(&buf, 0x0102030405060708))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf.Bytes())

	v, err := ReadUint64(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)
}

func TestTruncatedRead(t *testing.T) {
	_, err := ReadUint32(bytes.NewReader([]byte{1, 2}))
	assert.ErrorIs(t, err, ErrTruncatedRead)

	_, err = ReadUint64(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrTruncatedRead)
}

func TestSliceReader(t *testing.T) {
	b := AppendUint32(nil, 7)
	b = AppendUint64(b, 1<<40)
	b = append(b, 'x', 'y')

	r := NewSliceReader(b)
	v32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v32)

	v64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), v64)
	assert.Equal(t, 12, r.Offset())
	assert.Equal(t, 2, r.Len())

	_, err = r.ReadBytes(3)
	assert.ErrorIs(t, err, ErrTruncatedRead)

	require.NoError(t, r.Skip(1))
	rest, err := r.ReadBytes(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), rest)
}
