package minio

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/hupe1980/blastdb/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-blastdb"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("\x00MKVLA\x00")
	_, err = client.PutObject(ctx, bucket, "it/db.psq", bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	require.NoError(t, err)

	store := NewStore(client, bucket, "it/")
	blob, err := store.Open(ctx, "db.psq")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 1)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "MKVLA\x00", string(buf[:n]))

	_, err = store.Open(ctx, "missing.psq")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
