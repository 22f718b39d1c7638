// Package audit scans stored blobs by their header prefixes.
//
// Headers are partially inspectable: the first 16 bytes of a blob name the
// wrapping key, 32 add the account, 35 the region, 36 the algorithm. A
// Scanner reads just that prefix from every object in a store and aggregates
// the results, so a key-rotation or account-migration audit over millions of
// objects moves a few dozen bytes per object instead of the objects
// themselves.
package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rbaliyan/kmsheader"
)

var (
	tracer = otel.Tracer("github.com/rbaliyan/kmsheader/audit")
	meter  = otel.Meter("github.com/rbaliyan/kmsheader/audit")

	objectsScanned metric.Int64Counter
)

func init() {
	objectsScanned, _ = meter.Int64Counter("kmsheader.audit.objects_scanned",
		metric.WithDescription("Objects whose header prefix was read during an audit scan."))
}

// ObjectStore lists stored objects and reads header prefixes from them.
// S3Store implements it against S3; tests use in-memory stores.
type ObjectStore interface {
	// List calls fn for each object key. An error from fn stops the listing
	// and is returned.
	List(ctx context.Context, fn func(key string) error) error

	// ReadPrefix returns up to n bytes from the start of the object. Objects
	// shorter than n return what they have.
	ReadPrefix(ctx context.Context, key string, n int) ([]byte, error)
}

// Report aggregates one scan. Objects counts every object seen and Failed the
// subset whose prefix could not be read or decoded. The By maps count the
// rest; maps beyond the scanned prefix length stay empty, as do fields of
// objects shorter than the requested prefix.
type Report struct {
	Objects int `json:"objects"`
	Failed  int `json:"failed"`

	ByKeyID     map[string]int `json:"by_key_id"`
	ByAccount   map[string]int `json:"by_account"`
	ByRegion    map[string]int `json:"by_region"`
	ByAlgorithm map[string]int `json:"by_algorithm"`

	// Stale lists objects wrapped under a key other than the expected one,
	// sorted by key. Empty unless WithExpectedKey was given.
	Stale []string `json:"stale,omitempty"`
}

func newReport() *Report {
	return &Report{
		ByKeyID:     map[string]int{},
		ByAccount:   map[string]int{},
		ByRegion:    map[string]int{},
		ByAlgorithm: map[string]int{},
	}
}

// ScanOption configures a Scanner.
type ScanOption func(*scannerConfig)

type scannerConfig struct {
	prefixLen   int
	workers     int
	expectedARN string
}

// WithPrefixLen sets how many bytes to read per object: 16, 32, 35, or 36.
// Shorter prefixes move less data and recover fewer fields. The default is
// 36, the full inspectable prefix.
func WithPrefixLen(n int) ScanOption {
	return func(c *scannerConfig) {
		c.prefixLen = n
	}
}

// WithWorkers sets how many objects are read concurrently. The default is 4.
func WithWorkers(n int) ScanOption {
	return func(c *scannerConfig) {
		c.workers = n
	}
}

// WithExpectedKey marks objects wrapped under any key other than the given
// ARN's as stale. Comparison is by key id, so it works at every prefix
// length.
func WithExpectedKey(arn string) ScanOption {
	return func(c *scannerConfig) {
		c.expectedARN = arn
	}
}

// Scanner reads header prefixes from an ObjectStore and aggregates them into
// a Report.
type Scanner struct {
	store     ObjectStore
	prefixLen int
	workers   int

	expectKey    uuid.UUID
	expectKeySet bool
}

// NewScanner builds a Scanner over a store.
func NewScanner(store ObjectStore, opts ...ScanOption) (*Scanner, error) {
	if store == nil {
		return nil, fmt.Errorf("audit: nil object store")
	}

	cfg := scannerConfig{prefixLen: kmsheader.PrefixAlgorithm, workers: 4}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch cfg.prefixLen {
	case kmsheader.PrefixKeyID, kmsheader.PrefixAccount, kmsheader.PrefixARN, kmsheader.PrefixAlgorithm:
	default:
		return nil, fmt.Errorf("audit: prefix length %d: want 16, 32, 35, or 36", cfg.prefixLen)
	}
	if cfg.workers < 1 {
		return nil, fmt.Errorf("audit: workers %d: want at least 1", cfg.workers)
	}

	s := &Scanner{store: store, prefixLen: cfg.prefixLen, workers: cfg.workers}
	if cfg.expectedARN != "" {
		arn, err := kmsheader.ParseARN(cfg.expectedARN)
		if err != nil {
			return nil, fmt.Errorf("audit: expected key: %w", err)
		}
		s.expectKey = arn.KeyID
		s.expectKeySet = true
	}
	return s, nil
}

type scanResult struct {
	key     string
	n       int
	partial kmsheader.PartialHeader
	err     error
}

// Scan walks the store and aggregates every object's header prefix. Per-object
// failures do not stop the scan; they are counted in Report.Failed and
// collected into the returned error, so a scan can return both a usable
// report and a non-nil error.
func (s *Scanner) Scan(ctx context.Context) (*Report, error) {
	ctx, span := tracer.Start(ctx, "audit.Scan", trace.WithAttributes(
		attribute.Int("audit.prefix_len", s.prefixLen),
		attribute.Int("audit.workers", s.workers),
	))
	defer span.End()

	keys := make(chan string)
	results := make(chan scanResult)

	listErr := make(chan error, 1)
	go func() {
		defer close(keys)
		listErr <- s.store.List(ctx, func(key string) error {
			select {
			case keys <- key:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range keys {
				results <- s.scanObject(ctx, key)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	report := newReport()
	var merr *multierror.Error
	for r := range results {
		report.Objects++
		if r.err != nil {
			report.Failed++
			merr = multierror.Append(merr, fmt.Errorf("audit: %s: %w", r.key, r.err))
			continue
		}
		s.record(report, r)
	}

	if err := <-listErr; err != nil {
		merr = multierror.Append(merr, fmt.Errorf("audit: list objects: %w", err))
	}

	// Workers finish in arbitrary order.
	sort.Strings(report.Stale)

	objectsScanned.Add(ctx, int64(report.Objects))
	span.SetAttributes(
		attribute.Int("audit.objects", report.Objects),
		attribute.Int("audit.failed", report.Failed),
	)

	err := merr.ErrorOrNil()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan completed with errors")
	}
	return report, err
}

func (s *Scanner) scanObject(ctx context.Context, key string) scanResult {
	data, err := s.store.ReadPrefix(ctx, key, s.prefixLen)
	if err != nil {
		return scanResult{key: key, err: err}
	}
	p, err := kmsheader.Inspect(data)
	if err != nil {
		return scanResult{key: key, err: err}
	}
	return scanResult{key: key, n: len(data), partial: p}
}

// record folds one object into the report. Fields are counted only when the
// bytes actually read cover them, so objects shorter than the requested
// prefix degrade instead of failing.
func (s *Scanner) record(report *Report, r scanResult) {
	p := r.partial

	report.ByKeyID[p.KeyID.String()]++
	if s.expectKeySet && p.KeyID != s.expectKey {
		report.Stale = append(report.Stale, r.key)
	}

	if r.n >= kmsheader.PrefixAccount {
		report.ByAccount[p.Account]++
	}
	if r.n >= kmsheader.PrefixARN {
		report.ByRegion[p.Region.String()]++
	}
	if r.n >= kmsheader.PrefixAlgorithm {
		report.ByAlgorithm[algorithmLabel(p.Algorithm)]++
	}
}

// algorithmLabel names an algorithm for report keys. A zero value means the
// header recorded no algorithm, which is distinct from any real one.
func algorithmLabel(a kmsheader.Algorithm) string {
	if a == 0 {
		return "unspecified"
	}
	return a.String()
}
