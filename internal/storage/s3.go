package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"vaani/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Archive stores received audio payloads in object storage.
type S3Archive struct {
	client *s3.Client
	bucket string
}

func NewS3Archive(endpoint, region, accessKey, secretKey, bucket string) (*S3Archive, error) {
	cfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	logger.Info("Audio archive initialized", zap.String("bucket", bucket))

	return &S3Archive{
		client: client,
		bucket: bucket,
	}, nil
}

// ArchiveAudio uploads one audio payload and returns its object key.
func (a *S3Archive) ArchiveAudio(ctx context.Context, id string, audio []byte, contentType string) (string, error) {
	key := a.objectKey(id)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(audio),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive audio: %w", err)
	}

	logger.Debug("Audio archived",
		zap.String("key", key),
		zap.Int("size", len(audio)))

	return key, nil
}

// FetchAudio downloads an archived payload by key.
func (a *S3Archive) FetchAudio(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	return buf.Bytes(), nil
}

func (a *S3Archive) objectKey(id string) string {
	day := time.Now().Format("2006/01/02")
	return path.Join("audio", day, id+".webm")
}
