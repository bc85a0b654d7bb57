package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageService handles S3-compatible storage of exported lists
type StorageService struct {
	client     *minio.Client
	bucketName string
	region     string
	urlExpiry  time.Duration
}

// ExportResult describes an uploaded list
type ExportResult struct {
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewStorageService creates a new S3 storage service
func NewStorageService(endpoint, accessKey, secretKey, bucketName, region string, useSSL bool, urlExpiry time.Duration) (*StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &StorageService{
		client:     client,
		bucketName: bucketName,
		region:     region,
		urlExpiry:  urlExpiry,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{
			Region: s.region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ExportList uploads a rendered list for owner and returns a presigned
// download URL for it.
func (s *StorageService) ExportList(ctx context.Context, owner string, content []byte) (*ExportResult, error) {
	key := ExportKey(owner, time.Now())

	info, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType:        "text/plain; charset=utf-8",
		ContentDisposition: `attachment; filename="shopping-list.txt"`,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload list: %w", err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.urlExpiry, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &ExportResult{
		Bucket:    info.Bucket,
		Key:       info.Key,
		Size:      info.Size,
		URL:       url.String(),
		ExpiresAt: time.Now().Add(s.urlExpiry),
	}, nil
}

// Delete deletes an exported list
func (s *StorageService) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// ExportKey returns the object key of an export made at t
func ExportKey(owner string, t time.Time) string {
	owner = strings.ReplaceAll(owner, "/", "_")
	return fmt.Sprintf("exports/%s/%s-%s.txt", owner, t.UTC().Format("20060102-150405"), uuid.New().String()[:8])
}
