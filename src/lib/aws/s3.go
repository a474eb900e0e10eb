package aws

import (
	"bytes"
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignTTL = 7 * 24 * time.Hour

type S3Uploader struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Uploader returns nil without error when bucket is empty.
func NewS3Uploader(ctx context.Context, bucket string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Uploader{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// Upload stores data under key and returns a presigned download URL.
func (u *S3Uploader) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return "", err
	}
	log.Printf("Added object '%s' to bucket '%s'", key, u.bucket)
	r, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = presignTTL
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", key, err.Error())
		return "", err
	}
	return r.URL, nil
}
