// Package s3 serves BLAST database volumes from Amazon S3.
//
// Blobs are read with HTTP range requests and are never mapped, so volumes
// opened from S3 always use the buffered read path. Wrap the store in a
// blobstore.CachingStore to avoid repeated round trips for hot blocks.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "blastdb/")
//	db, _ := blastdb.Open(ctx, []string{"nr"}, blastdb.Protein,
//	    blastdb.WithBlobStore(blobstore.NewCachingStore(store, 256<<20, 0)))
package s3
