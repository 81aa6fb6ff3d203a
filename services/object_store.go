package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-backend/config"
)

var ErrStorageNotConfigured = errors.New("object storage is not configured")

// ObjectStore keeps uploaded files and serves them from a public base URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store works against AWS S3 and S3-compatible endpoints (R2, MinIO).
type S3Store struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, c map[string]string) (*S3Store, error) {
	bucket := config.GetString(c, "S3_BUCKET", "")
	if bucket == "" {
		return nil, ErrStorageNotConfigured
	}
	region := config.GetString(c, "S3_REGION", "auto")
	endpoint := config.GetString(c, "S3_ENDPOINT", "")

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if key := config.GetString(c, "S3_ACCESS_KEY_ID", ""); key != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, config.GetString(c, "S3_SECRET_ACCESS_KEY", ""), ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := config.GetString(c, "S3_PUBLIC_BASE_URL", "")
	if publicBaseURL == "" {
		if endpoint != "" {
			publicBaseURL = strings.TrimSuffix(endpoint, "/") + "/" + bucket
		} else {
			publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
		}
	}

	return &S3Store{client: client, bucket: bucket, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.publicBaseURL + "/" + key
}

// ProjectImageKey is the object key for a new image of a project.
func ProjectImageKey(projectID uuid.UUID, ext string) string {
	return fmt.Sprintf("projects/%s/%s%s", projectID, uuid.NewString(), ext)
}

// ReceiptKey is the object key for a new receipt upload.
func ReceiptKey(ext string) string {
	return fmt.Sprintf("receipts/%s%s", uuid.NewString(), ext)
}
