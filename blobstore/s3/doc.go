// Package s3 provides Amazon S3 implementations of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.Options{
//	    Prefix: "simtoken/",
//	    Region: "us-east-1",
//	})
//
// Store alone gives last-writer-wins semantics. When several nodes may publish
// a bank at the same time, wrap it in a DDBCommitStore so the CURRENT pointer
// is advanced with a DynamoDB conditional write.
package s3
