package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetContentType(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".jpg", "image/jpeg"},
		{".JPEG", "image/jpeg"},
		{".png", "image/png"},
		{".gif", "image/gif"},
		{".webp", "image/webp"},
		{".svg", "image/svg+xml"},
		{".mp4", "video/mp4"},
		{".MOV", "video/quicktime"},
		{".webm", "video/webm"},
		{".pdf", "application/pdf"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			assert.Equal(t, tt.expected, getContentType(tt.extension))
		})
	}
}

func TestNewKey(t *testing.T) {
	key := NewKey("tweets", "user-1", "Photo.JPG")

	parts := strings.Split(key, "/")
	require.Len(t, parts, 5)
	assert.Equal(t, "tweets", parts[0])
	assert.Equal(t, "user-1", parts[3])
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, NewKey("tweets", "user-1", "Photo.JPG"))
}

type fakeS3 struct {
	put     []*s3.PutObjectInput
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = append(f.put, params)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store_UploadAndDelete(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "media", region: "us-east-1", baseURL: "https://cdn.chirp.test/"}

	res, err := store.Upload(context.Background(), "tweets/a.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.chirp.test/tweets/a.png", res.URL)
	assert.Equal(t, "tweets/a.png", res.Key)
	require.Len(t, fake.put, 1)
	assert.Equal(t, "media", *fake.put[0].Bucket)
	assert.Equal(t, "image/png", *fake.put[0].ContentType)

	require.NoError(t, store.Delete(context.Background(), "tweets/a.png"))
	assert.Equal(t, []string{"tweets/a.png"}, fake.deleted)
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8787")
	require.NoError(t, err)

	res, err := store.Upload(context.Background(), "avatars/2026/01/u/x.png", strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8787/uploads/avatars/2026/01/u/x.png", res.URL)

	contents, err := os.ReadFile(filepath.Join(dir, "avatars", "2026", "01", "u", "x.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(contents))

	require.NoError(t, store.Delete(context.Background(), "avatars/2026/01/u/x.png"))
	// Deleting twice is fine
	require.NoError(t, store.Delete(context.Background(), "avatars/2026/01/u/x.png"))

	_, err = store.Upload(context.Background(), "../escape.png", strings.NewReader("x"), 1, "image/png")
	assert.Error(t, err)
}

func TestDeleteAll(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.Upload(ctx, "a", strings.NewReader("1"), 1, "text/plain")
	require.NoError(t, err)

	DeleteAll(ctx, store, []string{"a", "", "b"})

	assert.False(t, store.Has("a"))
	assert.Equal(t, []string{"a", "b"}, store.Deleted())
}
