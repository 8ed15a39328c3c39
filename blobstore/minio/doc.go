// Package minio provides a blobstore.Store backed by the MinIO client.
//
// It works with MinIO and other S3-compatible services (Ceph, Garage,
// SeaweedFS) without pulling in the AWS SDK.
//
//	client, err := minio.Dial("localhost:9000", "minioadmin", "minioadmin", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := minio.NewStore(client, "my-bucket", "simtoken/")
package minio
