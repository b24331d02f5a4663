// Package s3 is the production object store.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/infrastructure/storage/objectkey"
)

type Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func New(ctx context.Context, bucket, region string) (*Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region),
	}, nil
}

func (s *Storage) Put(ctx context.Context, key string, data io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "put object", err)
	}
	return s.URLOf(key), nil
}

func (s *Storage) Open(ctx context.Context, keyOrURL string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.KeyOf(keyOrURL)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.WrapError(domain.ErrNotFound, "get object", err)
		}
		return nil, domain.WrapError(domain.ErrStorage, "get object", err)
	}
	return out.Body, nil
}

func (s *Storage) Delete(ctx context.Context, keyOrURL string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.KeyOf(keyOrURL)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil
		}
		return domain.WrapError(domain.ErrStorage, "delete object", err)
	}
	return nil
}

func (s *Storage) DeletePrefix(ctx context.Context, prefix string) error {
	key := objectkey.Normalize(prefix)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(key),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.WrapError(domain.ErrStorage, "list prefix", err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return domain.WrapError(domain.ErrStorage, "delete prefix", err)
		}
	}
	return nil
}

func (s *Storage) KeyOf(urlOrKey string) string {
	return objectkey.Normalize(urlOrKey)
}

func (s *Storage) URLOf(key string) string {
	return s.baseURL + "/" + objectkey.Escape(key)
}
