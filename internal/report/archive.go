package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ikkim/shopsphere-storefront/config"
)

// Archiver keeps a copy of an exported report
type Archiver interface {
	Archive(ctx context.Context, name string, body []byte) (string, error)
}

type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Archiver(ctx context.Context, cfg config.S3Config) *S3Archiver {
	var awsCfg aws.Config
	var err error

	// Static credentials when configured, otherwise the default chain
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			awsCfg = aws.Config{Region: cfg.Region}
		}
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}
}

// Archive uploads body under prefix/yyyy/mm/dd/<uuid>-name and returns the key
func (a *S3Archiver) Archive(ctx context.Context, name string, body []byte) (string, error) {
	key := ObjectKey(a.prefix, name, time.Now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(ContentTypeXLSX),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to s3: %w", err)
	}
	return key, nil
}

// ObjectKey builds a unique, date partitioned object key
func ObjectKey(prefix, name string, t time.Time) string {
	key := fmt.Sprintf("%s/%s-%s", t.UTC().Format("2006/01/02"), uuid.NewString(), name)
	if prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
