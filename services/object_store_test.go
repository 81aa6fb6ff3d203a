package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorePutAndDelete(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "media", publicBaseURL: "https://cdn.example.com"}

	url, err := store.Put(context.Background(), "projects/a/b.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/projects/a/b.png", url)
	assert.Equal(t, "media", *fake.put.Bucket)
	assert.Equal(t, "image/png", *fake.put.ContentType)
	assert.Equal(t, int64(3), *fake.put.ContentLength)
	assert.Equal(t, []byte("png"), fake.body)

	require.NoError(t, store.Delete(context.Background(), "projects/a/b.png"))
	assert.Equal(t, []string{"projects/a/b.png"}, fake.deleted)
}

func TestS3StoreWrapsErrors(t *testing.T) {
	cause := errors.New("access denied")
	store := &S3Store{client: &fakeS3{err: cause}, bucket: "media"}

	_, err := store.Put(context.Background(), "k", "image/png", nil)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, store.Delete(context.Background(), "k"), cause)
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), map[string]string{})
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestNewS3StoreDerivesPublicURL(t *testing.T) {
	store, err := NewS3Store(context.Background(), map[string]string{
		"S3_BUCKET":            "media",
		"S3_ENDPOINT":          "http://localhost:9000/",
		"S3_ACCESS_KEY_ID":     "minio",
		"S3_SECRET_ACCESS_KEY": "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/media/x.png", store.URL("x.png"))
}

func TestObjectKeys(t *testing.T) {
	id := uuid.New()
	key := ProjectImageKey(id, ".jpg")
	assert.True(t, strings.HasPrefix(key, "projects/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	assert.NotEqual(t, ReceiptKey(".pdf"), ReceiptKey(".pdf"))
	assert.True(t, strings.HasPrefix(ReceiptKey(".pdf"), "receipts/"))
}
