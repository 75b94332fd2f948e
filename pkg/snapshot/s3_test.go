package snapshot

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// fakeS3 is an in-memory S3API for tests.
type fakeS3 struct {
	objects  map[string][]byte
	metadata map[string]map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:  make(map[string][]byte),
		metadata: make(map[string]map[string]string),
	}
}

type fakeNotFound struct{}

func (fakeNotFound) Error() string                 { return "NoSuchKey" }
func (fakeNotFound) ErrorCode() string             { return "NoSuchKey" }
func (fakeNotFound) ErrorMessage() string          { return "key does not exist" }
func (fakeNotFound) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	f.metadata[*params.Key] = params.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, fakeNotFound{}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(data)),
		Metadata: f.metadata[*params.Key],
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *params.Key)
	delete(f.metadata, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreSaveLoad(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "ripple/snapshots/")
	ctx := context.Background()

	data := []byte(`{"cells":{}}`)
	if err := store.Save(ctx, "sess-1", data, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, ok := fake.objects["ripple/snapshots/sess-1"]; !ok {
		t.Fatalf("expected object under prefixed key, have %v", fake.objects)
	}

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("expected %s, got %s", data, got)
	}
}

func TestS3StoreLoadMissing(t *testing.T) {
	store := NewS3Store(newFakeS3(), "bucket", "")

	got, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("expected missing key to map to (nil, nil), got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %q", got)
	}
}

func TestS3StoreExpiredObjectIsAbsent(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "")
	ctx := context.Background()

	store.Save(ctx, "sess-1", []byte("x"), time.Now().Add(-time.Minute))

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired snapshot to be absent, got %q", got)
	}
}

func TestS3StoreDelete(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "p/")
	ctx := context.Background()

	store.Save(ctx, "sess-1", []byte("x"), time.Now().Add(time.Hour))
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.Load(ctx, "sess-1"); got != nil {
		t.Errorf("expected deleted snapshot to be absent")
	}
}

func TestS3StoreClosed(t *testing.T) {
	store := NewS3Store(newFakeS3(), "bucket", "")
	store.Close()

	if err := store.Save(context.Background(), "a", nil, time.Time{}); err == nil {
		t.Errorf("expected error on closed store")
	}
}
