// Package blastdb reads BLAST sequence databases.
//
// A database is one or more physical volumes, each a triple of index,
// sequence and header files, composed by alias files into one contiguous
// ordinal-id (OID) space. blastdb resolves alias files, merges duplicate
// volumes, memory-maps sequence data lazily and shares mappings between all
// readers of the same physical volume.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, err := blastdb.Open(ctx, []string{"swissprot"}, blastdb.Protein)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	for oid := range db.OIDs() {
//	    seq, err := db.Sequence(ctx, oid)
//	    ...
//	}
//
// # Concurrency
//
// A DB is not safe for concurrent use. Each goroutine calls Attach to obtain
// its own handle; attachments share parsed indexes and mapped files, and
// the last Close of a physical volume unmaps it.
//
//	worker, err := db.Attach()
//	if err != nil {
//	    return err
//	}
//	defer worker.Close()
//
// # Search Path
//
// Bare names are looked up in the current directory, then in the
// directories listed in $BLASTDB, then in the BLASTDB entry of the [BLAST]
// section of .ncbirc. WithSearchPath replaces this list.
//
// # Key Lookups
//
// GI and accession lookups consult per-volume indexes supplied through
// WithIndexOpener. A hit in a volume whose alias restricts visible OIDs
// counts only if the OID is visible; otherwise the search continues with
// the next volume.
//
// # Remote Volumes
//
// Volume files can live in any blobstore.BlobStore, such as S3 or MinIO.
// Stores that cannot be memory-mapped are read through buffered I/O,
// optionally fronted by a block cache (WithBlockCache).
package blastdb
