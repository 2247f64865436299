package publish

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
)

type fakeStore struct {
	buckets map[string]bool
	objects map[string][]byte
	opts    minio.PutObjectOptions
	putErr  error
	made    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	f.made++
	return nil
}

func (f *fakeStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+object] = b
	f.opts = opts
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(b))}, nil
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		release  string
		language string
		filename string
		expected string
	}{
		{"gnome-49", "sv", "gnome-l10n-gnome-49-sv.csv", "gnome-49/sv/gnome-l10n-gnome-49-sv.csv"},
		{"/gnome-49/", "pt_BR", "report.xlsx", "gnome-49/pt_BR/report.xlsx"},
		{"gnome-49", "sv", "out/nested/report.csv", "gnome-49/sv/report.csv"},
		{"gnome-49", "sv", "out\\report.csv", "gnome-49/sv/report.csv"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.release, tt.language, tt.filename); got != tt.expected {
			t.Errorf("ObjectKey(%q, %q, %q) = %q; want %q", tt.release, tt.language, tt.filename, got, tt.expected)
		}
	}
}

func TestPublishCreatesBucket(t *testing.T) {
	store := newFakeStore()
	p := NewWithStore(store, "l10n-reports", nil)
	data := []byte("Module,Branch\n")

	got, err := p.Publish(context.Background(), "gnome-49", "sv", "gnome-l10n-gnome-49-sv.csv", "text/csv", data)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if want := "l10n-reports/gnome-49/sv/gnome-l10n-gnome-49-sv.csv"; got != want {
		t.Errorf("Publish() = %q; want %q", got, want)
	}
	if !bytes.Equal(store.objects[got], data) {
		t.Errorf("stored %q; want %q", store.objects[got], data)
	}
	if store.made != 1 {
		t.Errorf("MakeBucket calls = %d; want 1", store.made)
	}
	if store.opts.ContentType != "text/csv" || store.opts.UserMetadata["language"] != "sv" {
		t.Errorf("PutObjectOptions = %+v", store.opts)
	}

	if _, err := p.Publish(context.Background(), "gnome-49", "sv", "again.csv", "text/csv", data); err != nil {
		t.Fatal(err)
	}
	if store.made != 1 {
		t.Errorf("MakeBucket calls = %d after second publish; want 1", store.made)
	}
}

func TestPublishUploadError(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("access denied")
	p := NewWithStore(store, "l10n-reports", nil)
	if _, err := p.Publish(context.Background(), "gnome-49", "sv", "r.csv", "text/csv", []byte("x")); !errors.Is(err, store.putErr) {
		t.Errorf("Publish() error = %v; want wrapped %v", err, store.putErr)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Options{Endpoint: "play.min.io"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New() error = %v; want ErrNotConfigured", err)
	}
	p, err := New(Options{Endpoint: "play.min.io", AccessKey: "ak", SecretKey: "sk", Bucket: "b", Secure: true})
	if err != nil || p == nil {
		t.Errorf("New() = %v, %v", p, err)
	}
}
