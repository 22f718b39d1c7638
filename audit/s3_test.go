package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3 serves canned list pages and byte-range reads.
type mockS3 struct {
	pages   []*s3.ListObjectsV2Output
	objects map[string][]byte
	getErr  error

	listCalls []s3.ListObjectsV2Input
	lastGet   *s3.GetObjectInput
}

func (m *mockS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.listCalls = append(m.listCalls, *params)
	i := len(m.listCalls) - 1
	if i >= len(m.pages) {
		return nil, fmt.Errorf("unexpected page request %d", i)
	}
	return m.pages[i], nil
}

func (m *mockS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.lastGet = params
	if m.getErr != nil {
		return nil, m.getErr
	}
	data := m.objects[*params.Key]

	// Honor the byte range the way S3 does: a range past the end returns
	// what exists.
	var start, end int
	if params.Range != nil {
		if _, err := fmt.Sscanf(*params.Range, "bytes=%d-%d", &start, &end); err != nil {
			return nil, fmt.Errorf("bad range %q: %w", *params.Range, err)
		}
		if end >= len(data) {
			end = len(data) - 1
		}
		data = data[start : end+1]
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func listPage(keys []string, nextToken string) *s3.ListObjectsV2Output {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(nextToken != "")}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if nextToken != "" {
		out.NextContinuationToken = aws.String(nextToken)
	}
	return out
}

func TestS3StoreListPaginates(t *testing.T) {
	mock := &mockS3{pages: []*s3.ListObjectsV2Output{
		listPage([]string{"data/a", "data/b"}, "page-2"),
		listPage([]string{"data/c"}, ""),
	}}
	store := NewS3Store(mock, "blob-bucket", WithKeyPrefix("data/"))

	var keys []string
	err := store.List(context.Background(), func(key string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"data/a", "data/b", "data/c"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}

	if len(mock.listCalls) != 2 {
		t.Fatalf("list calls = %d, want 2", len(mock.listCalls))
	}
	first, second := mock.listCalls[0], mock.listCalls[1]
	if *first.Bucket != "blob-bucket" || *first.Prefix != "data/" {
		t.Errorf("first call bucket/prefix = %v/%v", first.Bucket, first.Prefix)
	}
	if first.ContinuationToken != nil {
		t.Errorf("first call has a continuation token: %v", *first.ContinuationToken)
	}
	if second.ContinuationToken == nil || *second.ContinuationToken != "page-2" {
		t.Errorf("second call token = %v, want page-2", second.ContinuationToken)
	}
}

func TestS3StoreListCallbackError(t *testing.T) {
	mock := &mockS3{pages: []*s3.ListObjectsV2Output{
		listPage([]string{"a", "b"}, "more"),
	}}
	store := NewS3Store(mock, "bucket")

	stop := errors.New("stop")
	err := store.List(context.Background(), func(string) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.listCalls) != 1 {
		t.Errorf("list calls = %d, want 1: later pages must not be fetched", len(mock.listCalls))
	}
}

func TestS3StoreReadPrefix(t *testing.T) {
	object := make([]byte, 300)
	for i := range object {
		object[i] = byte(i)
	}
	mock := &mockS3{objects: map[string][]byte{"data/obj": object}}
	store := NewS3Store(mock, "blob-bucket")

	got, err := store.ReadPrefix(context.Background(), "data/obj", 36)
	if err != nil {
		t.Fatalf("ReadPrefix: %v", err)
	}
	if !bytes.Equal(got, object[:36]) {
		t.Error("prefix bytes do not match the object")
	}

	in := mock.lastGet
	if *in.Bucket != "blob-bucket" || *in.Key != "data/obj" {
		t.Errorf("bucket/key = %v/%v", in.Bucket, in.Key)
	}
	if in.Range == nil || *in.Range != "bytes=0-35" {
		t.Errorf("Range = %v, want bytes=0-35", in.Range)
	}
}

func TestS3StoreReadPrefixShortObject(t *testing.T) {
	mock := &mockS3{objects: map[string][]byte{"tiny": make([]byte, 16)}}
	store := NewS3Store(mock, "bucket")

	got, err := store.ReadPrefix(context.Background(), "tiny", 36)
	if err != nil {
		t.Fatalf("ReadPrefix: %v", err)
	}
	if len(got) != 16 {
		t.Errorf("read %d bytes from a 16-byte object, want 16", len(got))
	}
}

func TestS3StoreReadPrefixError(t *testing.T) {
	cause := errors.New("NoSuchKey")
	store := NewS3Store(&mockS3{getErr: cause}, "bucket")

	_, err := store.ReadPrefix(context.Background(), "missing", 36)
	if !errors.Is(err, cause) {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.ReadPrefix(context.Background(), "x", 0); err == nil {
		t.Error("expected error for a zero-length prefix")
	}
}

// An S3-backed scan end to end: paginated listing, ranged reads, aggregation.
func TestS3StoreScan(t *testing.T) {
	mock := &mockS3{
		pages: []*s3.ListObjectsV2Output{
			listPage([]string{"data/a", "data/b"}, "next"),
			listPage([]string{"data/c"}, ""),
		},
		objects: map[string][]byte{
			"data/a": headerBlob(t, keyEastARN),
			"data/b": headerBlob(t, keyEastARN),
			"data/c": headerBlob(t, keyWestARN),
		},
	}
	store := NewS3Store(mock, "blob-bucket", WithKeyPrefix("data/"))

	report, err := mustScanner(t, store, WithExpectedKey(keyEastARN)).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if report.Objects != 3 || report.Failed != 0 {
		t.Errorf("Objects/Failed = %d/%d, want 3/0", report.Objects, report.Failed)
	}
	if got := report.ByRegion["us-east-1"]; got != 2 {
		t.Errorf("us-east-1 count = %d, want 2", got)
	}
	if len(report.Stale) != 1 || report.Stale[0] != "data/c" {
		t.Errorf("Stale = %v, want [data/c]", report.Stale)
	}
}
