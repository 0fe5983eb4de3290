package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}
)

// AvatarService keeps user avatars in an S3-compatible bucket. Clients move
// the bytes themselves through presigned URLs.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *AvatarService {
	return &AvatarService{db: db, repomanager: m, config: cfg, logger: l.With("module", "avatars")}
}

// AvatarStorageKey returns a fresh object key under the user's prefix.
func AvatarStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("avatars/%s/%d/%d/%d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AvatarService) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// UploadURL assigns a new avatar key to user and returns a presigned PUT URL
// for it. A previous avatar object is removed in the background.
func (s *AvatarService) UploadURL(ctx context.Context, user *models.User) (string, *models.User, error) {
	c, err := s.client(ctx)
	if err != nil {
		return "", nil, internalError("s3 client", err)
	}

	bucket := s.config.S3Bucket
	key := AvatarStorageKey(user.ID)

	req, err := presignPutObject(c, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", nil, internalError("presign put", err)
	}

	previous := user.AvatarKey
	u := *user
	u.AvatarKey = key

	updated, err := s.repomanager.Users(s.db).Update(ctx, &u)
	if err != nil {
		return "", nil, internalError("save avatar key", err)
	}

	if previous != "" {
		go s.removeDetached(previous)
	}

	return req.URL, updated, nil
}

// DownloadURL returns a presigned GET URL for the user's avatar.
func (s *AvatarService) DownloadURL(ctx context.Context, user *models.User) (string, error) {
	if user.AvatarKey == "" {
		return "", common.ErrorNotFound
	}

	c, err := s.client(ctx)
	if err != nil {
		return "", internalError("s3 client", err)
	}

	bucket := s.config.S3Bucket
	key := user.AvatarKey

	req, err := presignGetObject(c, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", internalError("presign get", err)
	}

	return req.URL, nil
}

// Remove clears the user's avatar key and deletes the object.
func (s *AvatarService) Remove(ctx context.Context, user *models.User) (*models.User, error) {
	if user.AvatarKey == "" {
		return nil, common.ErrorNotFound
	}

	key := user.AvatarKey
	u := *user
	u.AvatarKey = ""

	updated, err := s.repomanager.Users(s.db).Update(ctx, &u)
	if err != nil {
		return nil, internalError("clear avatar key", err)
	}

	// the key is already gone from the user, so a stale object is only logged
	if err := s.RemoveObject(ctx, key); err != nil {
		s.logger.Warn(ctx, "avatar object not removed", "key", key, "error", err)
	}

	return updated, nil
}

// RemoveObject deletes one object from the avatar bucket.
func (s *AvatarService) RemoveObject(ctx context.Context, key string) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	return deleteObject(c, ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key})
}

func (s *AvatarService) removeDetached(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.RemoveObject(ctx, key); err != nil {
		s.logger.Warn(ctx, "old avatar not removed", "key", key, "error", err)
	}
}
