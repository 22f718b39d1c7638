package audit

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the S3 API used by S3Store. *s3.Client
// implements it.
type S3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Option configures an S3Store.
type S3Option func(*S3Store)

// WithKeyPrefix limits the store to objects whose keys start with prefix.
func WithKeyPrefix(prefix string) S3Option {
	return func(s *S3Store) {
		s.prefix = prefix
	}
}

// S3Store is an ObjectStore over one S3 bucket. ReadPrefix issues ranged
// GETs, so a scan transfers only each object's header prefix.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

var _ ObjectStore = (*S3Store)(nil)

// NewS3Store returns a store over the given bucket.
func NewS3Store(client S3Client, bucket string, opts ...S3Option) *S3Store {
	s := &S3Store{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List walks the bucket page by page.
func (s *S3Store) List(ctx context.Context, fn func(key string) error) error {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		in.Prefix = aws.String(s.prefix)
	}

	p := s3.NewListObjectsV2Paginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if err := fn(*obj.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadPrefix fetches the object's first n bytes with a ranged GET. S3 returns
// the whole object when it is shorter than the range.
func (s *S3Store) ReadPrefix(ctx context.Context, key string, n int) ([]byte, error) {
	if n < 1 {
		return nil, fmt.Errorf("read s3://%s/%s: prefix length %d", s.bucket, key, n)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", n-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}
