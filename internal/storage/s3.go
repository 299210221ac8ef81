package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config addresses an S3-compatible service.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBase is the URL objects are served from, followed by /bucket/path.
	// Defaults to Endpoint.
	PublicBase string
}

type S3Storage struct {
	client *s3.S3
	base   string
}

func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Endpoint:         aws.String(cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	base := cfg.PublicBase
	if base == "" {
		base = cfg.Endpoint
	}
	return &S3Storage{client: s3.New(sess), base: strings.TrimRight(base, "/")}, nil
}

func (s *S3Storage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	key, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload %s to s3: %w", key, err)
	}
	return s.PublicURL(bucket, key), nil
}

func (s *S3Storage) Delete(ctx context.Context, bucket, path string) error {
	key, err := cleanPath(path)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("unable to delete %s from s3: %w", key, err)
	}
	return nil
}

func (s *S3Storage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", s.base, bucket, strings.TrimLeft(path, "/"))
}

func (s *S3Storage) ObjectPath(publicURL string) (string, string, bool) {
	return splitURL(s.base, publicURL)
}
