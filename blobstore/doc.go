// Package blobstore provides storage for the small documents the token space
// persists: hyperplane banks, the CURRENT bank pointer and ring snapshots.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, used in tests
//   - LocalStore: local filesystem with atomic rename
//   - CachingStore: read-through ristretto cache around any Store
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with DynamoDB
//     conditional writes for CURRENT
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error   // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Missing blobs must be reported with an error matching ErrNotFound.
package blobstore
