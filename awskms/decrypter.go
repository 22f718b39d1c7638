// Package awskms implements kmsheader.Decrypter against AWS KMS.
//
// The decrypter builds a KMS client for each region it encounters — the
// header's ARN names the region, so no region configuration is needed up
// front — and caches clients for reuse. Credentials come from the default
// AWS config chain unless overridden.
//
// Usage:
//
//	dec := awskms.New()
//
//	h, err := kmsheader.Parse(blob)
//	...
//	plaintext, err := h.Decrypt(ctx, dec)
package awskms

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rbaliyan/kmsheader"
)

var tracer = otel.Tracer("github.com/rbaliyan/kmsheader/awskms")

// Client is the subset of the AWS KMS API used to unwrap cipher data.
type Client interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// ClientFactory builds a KMS client for a region.
type ClientFactory func(ctx context.Context, region string) (Client, error)

// Option configures a Decrypter.
type Option func(*options)

type options struct {
	clients    map[string]Client
	factory    ClientFactory
	configOpts []func(*config.LoadOptions) error
}

// WithClient preseeds the client cache for a region. Requests for other
// regions still go through the factory.
func WithClient(region string, client Client) Option {
	return func(o *options) {
		o.clients[region] = client
	}
}

// WithClientFactory replaces how clients are built for regions not already in
// the cache. It overrides WithConfigOptions.
func WithClientFactory(factory ClientFactory) Option {
	return func(o *options) {
		o.factory = factory
	}
}

// WithConfigOptions appends options to the default AWS config loading, e.g.
// config.WithSharedConfigProfile. The region is always set from the header's
// ARN and cannot be overridden here.
func WithConfigOptions(opts ...func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOpts = append(o.configOpts, opts...)
	}
}

// Decrypter unwraps header cipher data with AWS KMS, routing each request to
// the region its key ARN names. It is safe for concurrent use.
type Decrypter struct {
	factory ClientFactory

	mu      sync.Mutex
	clients map[string]Client
}

var _ kmsheader.Decrypter = (*Decrypter)(nil)

// New returns a Decrypter. Construction never touches AWS; config loading and
// client construction happen per region on first use.
func New(opts ...Option) *Decrypter {
	o := options{clients: map[string]Client{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = defaultFactory(o.configOpts)
	}
	return &Decrypter{factory: o.factory, clients: o.clients}
}

func defaultFactory(configOpts []func(*config.LoadOptions) error) ClientFactory {
	return func(ctx context.Context, region string) (Client, error) {
		loadOpts := append([]func(*config.LoadOptions) error{config.WithRegion(region)}, configOpts...)
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("awskms: load config for region %s: %w", region, err)
		}
		return kms.NewFromConfig(cfg), nil
	}
}

// Decrypt sends the ciphertext to KMS in the ARN's region, pinned to the
// ARN's key so KMS rejects material wrapped under a different key.
func (d *Decrypter) Decrypt(ctx context.Context, arn kmsheader.KeyARN, ciphertext []byte, alg kmsheader.Algorithm) ([]byte, error) {
	spec, err := encryptionAlgorithm(alg)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "awskms.Decrypt", trace.WithAttributes(
		attribute.String("kms.region", arn.Region.String()),
		attribute.String("kms.key_id", arn.KeyID.String()),
		attribute.String("kms.algorithm", alg.String()),
	))
	defer span.End()

	client, err := d.client(ctx, arn.Region.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out, err := client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob:      ciphertext,
		KeyId:               aws.String(arn.String()),
		EncryptionAlgorithm: spec,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("awskms: decrypt under key %s: %w", arn.KeyID, err)
	}
	return out.Plaintext, nil
}

// client returns the cached client for a region, building one on first use.
func (d *Decrypter) client(ctx context.Context, region string) (Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.clients[region]; ok {
		return c, nil
	}
	c, err := d.factory(ctx, region)
	if err != nil {
		return nil, err
	}
	d.clients[region] = c
	return c, nil
}

// encryptionAlgorithm maps a header algorithm to the KMS request enum.
func encryptionAlgorithm(alg kmsheader.Algorithm) (types.EncryptionAlgorithmSpec, error) {
	switch alg {
	case kmsheader.OAEPSHA1:
		return types.EncryptionAlgorithmSpecRsaesOaepSha1, nil
	case kmsheader.OAEPSHA256:
		return types.EncryptionAlgorithmSpecRsaesOaepSha256, nil
	default:
		return "", fmt.Errorf("%w: %s", kmsheader.ErrUnsupportedAlgorithm, alg)
	}
}
