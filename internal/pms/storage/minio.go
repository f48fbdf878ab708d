// Package storage 季度证明材料的对象存储
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Saviken/TNH-Performance-Target/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// EvidenceStore 基于 MinIO 的证明材料存储
type EvidenceStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *zap.Logger
}

// New 连接 MinIO 并确保 bucket 存在
func New(ctx context.Context, cfg config.MinIOConfig, logger *zap.Logger) (*EvidenceStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("created evidence bucket", zap.String("bucket", cfg.Bucket))
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &EvidenceStore{client: client, bucket: cfg.Bucket, expiry: expiry, logger: logger}, nil
}

// Put 上传对象
func (s *EvidenceStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// URL 生成限时下载地址
func (s *EvidenceStore) URL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
