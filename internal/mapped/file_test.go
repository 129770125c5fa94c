package mapped

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/hupe1980/blastdb/internal/binio"
	"github.com/hupe1980/blastdb/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *blobstore.MemoryStore {
	t.Helper()
	s := blobstore.NewMemoryStore()
	s.Put("db.psq", []byte("\x00MKV\x00LLA\x00"))
	return s
}

func TestFile_Mapped(t *testing.T) {
	ctx := context.Background()
	f, err := Open(ctx, newStore(t), "db.psq", Options{})
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, f.Mapped())
	assert.Equal(t, int64(9), f.Size())

	c1, c2 := f.Attach(), f.Attach()
	c1.Seek(1)
	c2.Seek(5)

	b1, err := c1.Read(ctx, 3)
	require.NoError(t, err)
	b2, err := c2.Read(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "MKV", string(b1))
	assert.Equal(t, "LLA", string(b2))
	assert.Equal(t, int64(4), c1.Offset())
	assert.Equal(t, int64(8), c2.Offset())

	_, err = c1.ReadAt(ctx, 8, 2)
	assert.ErrorIs(t, err, binio.ErrTruncatedRead)
}

func TestFile_Buffered(t *testing.T) {
	ctx := context.Background()
	f, err := Open(ctx, newStore(t), "db.psq", Options{DisableMmap: true, ScratchSize: 2})
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.Mapped())
	assert.Nil(t, f.Bytes())

	c := f.Attach()
	b, err := c.ReadAt(ctx, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, "LLA", string(b))

	all, err := f.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x00MKV\x00LLA\x00"), all)
}

func TestFile_MemoryBudgetFallback(t *testing.T) {
	var logs bytes.Buffer
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 4})
	f, err := Open(context.Background(), newStore(t), "db.psq", Options{
		Resources: rc,
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.Mapped())
	assert.Zero(t, rc.MemoryUsage())
	assert.Contains(t, logs.String(), "buffered reads")
}

func TestFile_ReleasesBudgetOnClose(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	f, err := Open(context.Background(), newStore(t), "db.psq", Options{Resources: rc})
	require.NoError(t, err)
	assert.True(t, f.Mapped())
	assert.Equal(t, int64(9), rc.MemoryUsage())

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Zero(t, rc.MemoryUsage())

	_, err = f.Attach().ReadAt(context.Background(), 0, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFile_ReadUint32(t *testing.T) {
	s := blobstore.NewMemoryStore()
	s.Put("x", binio.AppendUint32(binio.AppendUint32(nil, 3), 0xdeadbeef))
	f, err := Open(context.Background(), s, "x", Options{DisableMmap: true})
	require.NoError(t, err)
	defer f.Close()

	v, err := f.Attach().ReadUint32(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestFile_Missing(t *testing.T) {
	_, err := Open(context.Background(), blobstore.NewMemoryStore(), "nope", Options{})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
