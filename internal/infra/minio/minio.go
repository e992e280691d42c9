package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"skymate/internal/config"
	"skymate/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Storage 照片对象存储
type Storage struct {
	client *minio.Client
	cfg    config.MinIOConfig
}

// New 创建 MinIO 客户端，确保照片 Bucket 存在且公开可读
func New(cfg *config.MinIOConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &Storage{client: client, cfg: *cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.ensurePublicBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("MinIO connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.PhotoBucket),
	)
	return s, nil
}

func (s *Storage) ensurePublicBucket(ctx context.Context) error {
	bucket := s.cfg.PhotoBucket
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		logger.Info("MinIO bucket created", zap.String("bucket", bucket))
	}

	// 画廊直接通过公开地址加载图片
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
	if err := s.client.SetBucketPolicy(ctx, bucket, policy); err != nil {
		return fmt.Errorf("failed to set public policy for %s: %w", bucket, err)
	}
	return nil
}

// Upload 上传照片，返回对象名
func (s *Storage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.PhotoBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}
	return objectName, nil
}

// Remove 删除照片对象
func (s *Storage) Remove(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.PhotoBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove from minio: %w", err)
	}
	return nil
}

// ResolvePublicURL 把存储路径转换为公开访问地址
func (s *Storage) ResolvePublicURL(path string) string {
	return PublicURL(&s.cfg, path)
}

// PublicURL 纯函数版本，便于在没有客户端时使用
func PublicURL(cfg *config.MinIOConfig, path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(cfg.PublicBaseURL, "/"), path)
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.Endpoint, cfg.PhotoBucket, path)
}
