// Package minio serves BLAST database volumes from MinIO and other
// S3-compatible object stores through range reads.
package minio
