package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mourao666/cassandra-sim/blobstore"
)

// Store keeps banks and ring snapshots in a MinIO (or other S3-compatible)
// bucket. Every name is stored under prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.Store = (*Store)(nil)

// NewStore returns a store over bucket. A non-empty prefix is treated as a
// directory, so "simtoken" and "simtoken/" are equivalent.
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// Dial connects to endpoint with static credentials.
func Dial(endpoint, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio %s: %w", endpoint, err)
	}
	return client, nil
}

func (s *Store) objectKey(name string) string { return s.prefix + name }

// Get implements blobstore.Store. GetObject is lazy, so a missing object
// surfaces on the first read.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(name, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate(name, err)
	}
	return data, nil
}

// Put implements blobstore.Store.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:    "application/octet-stream",
			SendContentMd5: true,
		})
	if err != nil {
		return fmt.Errorf("put %q: %w", name, err)
	}
	return nil
}

// Delete implements blobstore.Store.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(name), minio.RemoveObjectOptions{})
	if err == nil || isNotFound(err) {
		return nil
	}
	return fmt.Errorf("delete %q: %w", name, err)
}

// List implements blobstore.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.objectKey(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, obj.Err)
		}
		if name := strings.TrimPrefix(obj.Key, s.prefix); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func translate(name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("blob %q: %w", name, blobstore.ErrNotFound)
	}
	return fmt.Errorf("get %q: %w", name, err)
}
