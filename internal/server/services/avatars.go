package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/devtv/devtv/internal/server/adapter"
	sc "github.com/devtv/devtv/internal/server/config"
	"github.com/google/uuid"
)

var (
	// ErrNoAvatar is returned when the user has no stored avatar.
	ErrNoAvatar = errors.New("no avatar")
	// ErrInvalidAvatarKey is returned for keys not reserved for the user.
	ErrInvalidAvatarKey = errors.New("invalid avatar key")
	// ErrUploadNotFound is returned when a reserved key has no object yet.
	ErrUploadNotFound = errors.New("avatar upload not found")
)

const avatarPrefix = "avatars/"

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}
)

// AvatarUpload is a pending avatar upload: the reserved object key and a
// presigned URL the client PUTs the bytes to. The key becomes the user's
// image once CompleteUpload confirms the object exists.
type AvatarUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AvatarService keeps user avatars in S3-compatible object storage.
type AvatarService struct {
	store  adapter.Adapter
	config *sc.Config
}

func NewAvatarService(store adapter.Adapter, config *sc.Config) *AvatarService {
	return &AvatarService{store: store, config: config}
}

// GetRandomStorageKey returns a fresh object key under
// avatars/<userID>/<yyyy>/<m>/<d>/.
func GetRandomStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("%s%s/%d/%d/%d/%v", avatarPrefix, userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// ownsKey reports whether key was reserved for userID.
func ownsKey(userID, key string) bool {
	rest, ok := strings.CutPrefix(key, avatarPrefix+userID+"/")
	return ok && userID != "" && rest != "" && !strings.Contains(key, "..")
}

func (s *AvatarService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
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

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(client), nil
}

// GetPresignedPutUrl presigns an upload for a new random key of userID.
func (s *AvatarService) GetPresignedPutUrl(ctx context.Context, userID string) (string, string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey(userID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetPresignedGetUrl presigns a download of key.
func (s *AvatarService) GetPresignedGetUrl(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// BeginUpload reserves a key for userID and presigns its upload. The user's
// image is left unchanged.
func (s *AvatarService) BeginUpload(ctx context.Context, userID string) (*AvatarUpload, error) {
	key, url, err := s.GetPresignedPutUrl(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}
	return &AvatarUpload{Key: key, URL: url}, nil
}

// CompleteUpload points the user's image at key once the uploaded object is
// in the bucket. Keys reserved for other users are ErrInvalidAvatarKey and a
// missing object is ErrUploadNotFound.
func (s *AvatarService) CompleteUpload(ctx context.Context, userID, key string) error {
	if !ownsKey(userID, key) {
		return ErrInvalidAvatarKey
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	if _, err := headObject(client, ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key}); err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ErrUploadNotFound
		}
		return fmt.Errorf("error checking upload: %w", err)
	}

	if _, err := s.store.UpdateUser(ctx, adapter.UserUpdate{ID: userID, Image: &key}); err != nil {
		return err
	}
	return nil
}

// DownloadURL presigns a download of the user's current avatar, or returns
// ErrNoAvatar.
func (s *AvatarService) DownloadURL(ctx context.Context, userID string) (string, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil || u.Image == "" {
		return "", ErrNoAvatar
	}

	url, err := s.GetPresignedGetUrl(ctx, u.Image)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return url, nil
}
