// Package s3 stores blobs in an Amazon S3 (or compatible) bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/xraph/invoiceledger/blob"
)

var _ blob.Store = (*Store)(nil)

// Config selects the bucket. Endpoint is optional and enables
// path-style addressing for S3-compatible servers.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

type Store struct {
	bucket   string
	prefix   string
	client   *awss3.S3
	uploader *s3manager.Uploader
}

// New opens a session using the default AWS credential chain.
func New(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("blob/s3: bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("blob/s3: session: %w", err)
	}
	return &Store{
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		client:   awss3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}, nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("blob/s3: upload %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	buf := aws.NewWriteAtBuffer(nil)
	downloader := s3manager.NewDownloaderWithClient(s.client)
	_, err := downloader.DownloadWithContext(ctx, buf, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == awss3.ErrCodeNoSuchKey {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("blob/s3: download %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		return fmt.Errorf("blob/s3: delete %s: %w", key, err)
	}
	return nil
}
