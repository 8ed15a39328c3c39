package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mourao666/cassandra-sim/blobstore"
)

// Attribute names of a commit item.
const (
	attrBaseURI     = "base_uri"
	attrVersion     = "version"
	attrBank        = "bank"
	attrPublishedAt = "published_at"
)

// ErrConcurrentModification is returned when another writer published the
// same CURRENT version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API used by DDBCommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewDDBClient builds a DynamoDB client from an AWS configuration.
func NewDDBClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// Commit is one published CURRENT pointer.
type Commit struct {
	Version     uint64
	Bank        string
	PublishedAt time.Time
}

// DDBCommitStore publishes the CURRENT bank pointer through DynamoDB and
// delegates every other name to inner.
//
// All nodes of a ring must project keys with the same hyperplane bank, so
// CURRENT is kept as a history of versioned items. A new version is written
// with attribute_not_exists(version); of two nodes publishing at once, one
// gets ErrConcurrentModification.
//
// The table uses base_uri (S) as partition key and version (N) as sort key:
//
//	aws dynamodb create-table \
//	  --table-name simtoken-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	inner   blobstore.Store
	client  DDBClient
	table   string
	baseURI string
	now     func() time.Time
}

var _ blobstore.Store = (*DDBCommitStore)(nil)

// NewDDBCommitStore wraps inner. baseURI ("s3://bucket/prefix") identifies
// the deployment and is the partition key of its commits.
func NewDDBCommitStore(inner blobstore.Store, client DDBClient, table, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		inner:   inner,
		client:  client,
		table:   table,
		baseURI: baseURI,
		now:     time.Now,
	}
}

// Get implements blobstore.Store.
func (s *DDBCommitStore) Get(ctx context.Context, name string) ([]byte, error) {
	if name != blobstore.CurrentName {
		return s.inner.Get(ctx, name)
	}
	commits, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("%s at %s: %w", name, s.baseURI, blobstore.ErrNotFound)
	}
	return []byte(commits[0].Bank), nil
}

// Put implements blobstore.Store. Writing CURRENT publishes a new version.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != blobstore.CurrentName {
		return s.inner.Put(ctx, name, data)
	}
	_, err := s.publish(ctx, string(data))
	return err
}

// Delete implements blobstore.Store. CURRENT history is never deleted.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if name == blobstore.CurrentName {
		return nil
	}
	return s.inner.Delete(ctx, name)
}

// List implements blobstore.Store.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Version returns the latest published version, 0 if none.
func (s *DDBCommitStore) Version(ctx context.Context) (uint64, error) {
	commits, err := s.History(ctx, 1)
	if err != nil || len(commits) == 0 {
		return 0, err
	}
	return commits[0].Version, nil
}

// History returns up to limit commits, newest first. A limit <= 0 returns
// every commit.
func (s *DDBCommitStore) History(ctx context.Context, limit int) ([]Commit, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String(attrBaseURI + " = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := s.client.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	commits := make([]Commit, 0, len(out.Items))
	for _, item := range out.Items {
		c, err := decodeCommit(item)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func (s *DDBCommitStore) publish(ctx context.Context, bank string) (Commit, error) {
	version, err := s.Version(ctx)
	if err != nil {
		return Commit{}, err
	}
	c := Commit{Version: version + 1, Bank: bank, PublishedAt: s.now().UTC()}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                s.encodeCommit(c),
		ConditionExpression: aws.String("attribute_not_exists(" + attrVersion + ")"),
	})
	var condErr *types.ConditionalCheckFailedException
	switch {
	case errors.As(err, &condErr):
		return Commit{}, fmt.Errorf("publish version %d: %w", c.Version, ErrConcurrentModification)
	case err != nil:
		return Commit{}, fmt.Errorf("publish version %d: %w", c.Version, err)
	}
	return c, nil
}

func (s *DDBCommitStore) encodeCommit(c Commit) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrBaseURI:     &types.AttributeValueMemberS{Value: s.baseURI},
		attrVersion:     &types.AttributeValueMemberN{Value: strconv.FormatUint(c.Version, 10)},
		attrBank:        &types.AttributeValueMemberS{Value: c.Bank},
		attrPublishedAt: &types.AttributeValueMemberS{Value: c.PublishedAt.Format(time.RFC3339Nano)},
	}
}

func decodeCommit(item map[string]types.AttributeValue) (Commit, error) {
	var c Commit

	v, ok := item[attrVersion].(*types.AttributeValueMemberN)
	if !ok {
		return c, fmt.Errorf("commit item: missing %s", attrVersion)
	}
	version, err := strconv.ParseUint(v.Value, 10, 64)
	if err != nil {
		return c, fmt.Errorf("commit item %s: %w", attrVersion, err)
	}
	c.Version = version

	b, ok := item[attrBank].(*types.AttributeValueMemberS)
	if !ok {
		return c, fmt.Errorf("commit item %d: missing %s", version, attrBank)
	}
	c.Bank = b.Value

	// Items written before published_at existed decode with a zero time.
	if ts, ok := item[attrPublishedAt].(*types.AttributeValueMemberS); ok {
		if c.PublishedAt, err = time.Parse(time.RFC3339Nano, ts.Value); err != nil {
			return c, fmt.Errorf("commit item %d %s: %w", version, attrPublishedAt, err)
		}
	}
	return c, nil
}
