package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"astraldraft-backend/shared/config"
)

var allowedAvatarTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// AvatarService stores user avatars in a MinIO bucket.
type AvatarService struct {
	client     *minio.Client
	bucketName string
}

func NewAvatarService() (*AvatarService, error) {
	cfg := config.GetConfig()

	parsedURL, err := url.Parse(cfg.MinIOServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %w", err)
	}

	log.Printf("🔗 Connecting to MinIO: %s (SSL: %v)", parsedURL.Host, cfg.MinIOUseSSL)

	minioClient, err := minio.New(parsedURL.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &AvatarService{
		client:     minioClient,
		bucketName: cfg.MinIOBucketName,
	}

	if err := service.initializeBucket(); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *AvatarService) initializeBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("✅ MinIO bucket '%s' created successfully", s.bucketName)
	} else {
		log.Printf("✅ MinIO bucket '%s' already exists", s.bucketName)
	}

	return nil
}

// ValidateAvatarFilename checks the extension against the allow-list and
// returns the content type to store.
func ValidateAvatarFilename(filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := allowedAvatarTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported avatar file type: %s", ext)
	}
	return contentType, nil
}

// Upload stores an avatar and returns its object key. One object per user;
// re-uploading overwrites the previous avatar.
func (s *AvatarService) Upload(ctx context.Context, userID uint, filename string, reader io.Reader, size int64) (string, error) {
	contentType, err := ValidateAvatarFilename(filename)
	if err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("avatars/%d%s", userID, strings.ToLower(path.Ext(filename)))

	_, err = s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return objectKey, nil
}

// PresignedURL returns a temporary download URL for an avatar object key.
func (s *AvatarService) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign avatar URL: %w", err)
	}
	return presigned.String(), nil
}
