package main

import (
	"context"
	"errors"
	"fmt"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/mourao666/cassandra-sim/blobstore"
	miniostore "github.com/mourao666/cassandra-sim/blobstore/minio"
	s3store "github.com/mourao666/cassandra-sim/blobstore/s3"
	"github.com/mourao666/cassandra-sim/codec"
	"github.com/mourao666/cassandra-sim/config"
	"github.com/mourao666/cassandra-sim/dht"
	"github.com/mourao666/cassandra-sim/hyperplane"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/mourao666/cassandra-sim"

// openBlobStore builds the store banks and ring snapshots are kept in.
func openBlobStore(ctx context.Context, cfg config.BlobStoreConfig) (blobstore.Store, error) {
	var store blobstore.Store
	switch cfg.Kind {
	case "memory":
		store = blobstore.NewMemoryStore()
	case "local":
		store = blobstore.NewLocalStore(cfg.Root)
	case "s3":
		s, err := s3store.New(ctx, cfg.Bucket, s3store.Options{
			Prefix:       cfg.Prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 blob store: %w", err)
		}
		store = s
		if cfg.CommitTable != "" {
			var loadOpts []func(*awsconfig.LoadOptions) error
			if cfg.Region != "" {
				loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
			if err != nil {
				return nil, fmt.Errorf("aws config: %w", err)
			}
			baseURI := "s3://" + path.Join(cfg.Bucket, cfg.Prefix)
			store = s3store.NewDDBCommitStore(s, s3store.NewDDBClient(awsCfg), cfg.CommitTable, baseURI)
		}
	case "minio":
		client, err := miniostore.Dial(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Secure)
		if err != nil {
			return nil, fmt.Errorf("minio blob store: %w", err)
		}
		store = miniostore.NewStore(client, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown blob store kind %q", cfg.Kind)
	}

	if cfg.CacheEntries > 0 {
		cached, err := blobstore.NewCachingStore(store, cfg.CacheEntries)
		if err != nil {
			return nil, err
		}
		store = cached
	}
	return store, nil
}

// saveOptions maps the bank codec settings onto hyperplane save options.
func saveOptions(cfg config.BankConfig) ([]hyperplane.SaveOption, error) {
	c, ok := codec.ByName(cfg.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.Codec)
	}
	comp, err := codec.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return []hyperplane.SaveOption{hyperplane.WithCodec(c), hyperplane.WithCompression(comp)}, nil
}

// loadBank resolves the configured bank. Inline normals win; otherwise the
// named bank is read from store, and generated from the seed when absent.
func loadBank(ctx context.Context, cfg config.BankConfig, store blobstore.Store) (*hyperplane.Bank, error) {
	if len(cfg.Normals) > 0 {
		return hyperplane.NewBank(cfg.Normals)
	}
	bank, err := hyperplane.LoadBank(ctx, store, cfg.Name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return hyperplane.Generate(cfg.Bits, cfg.Dimension, cfg.Seed)
	}
	return bank, err
}

// partitionerOptions applies the logging and ownership settings.
func (a *app) partitionerOptions(extra ...dht.Option) []dht.Option {
	opts := []dht.Option{
		dht.WithLogger(a.logger),
		dht.WithOwnershipConcurrency(a.cfg.Ownership.Concurrency),
		dht.WithTracer(otel.Tracer(tracerName)),
	}
	if a.cfg.Ownership.RateLimit > 0 {
		opts = append(opts, dht.WithOwnershipRateLimit(rate.Limit(a.cfg.Ownership.RateLimit), a.cfg.Ownership.Burst))
	}
	return append(opts, extra...)
}

// partitioner loads the bank and builds a partitioner without a catalog.
func (a *app) partitioner(ctx context.Context) (*dht.SimilarityPartitioner, error) {
	store, err := openBlobStore(ctx, a.cfg.BlobStore)
	if err != nil {
		return nil, err
	}
	bank, err := loadBank(ctx, a.cfg.Bank, store)
	if err != nil {
		return nil, err
	}
	return dht.NewSimilarityPartitioner(bank, a.partitionerOptions()...)
}
