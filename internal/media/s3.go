// Package media uploads listing photos to S3-compatible object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"arenda/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotImage  = errors.New("file is not an image")
	ErrTooLarge  = errors.New("file is too large")
)

// MaxImageSize ограничение размера фотографии объявления
const MaxImageSize = 10 << 20

type S3Uploader struct {
	client    *s3.S3
	bucket    string
	folder    string
	publicURL string
	logger    *zerolog.Logger
}

func NewS3Uploader(cfg config.StorageConfig, logger *zerolog.Logger) (*S3Uploader, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(cfg.PathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}

	return &S3Uploader{
		client:    s3.New(sess),
		bucket:    cfg.Bucket,
		folder:    strings.Trim(cfg.Folder, "/"),
		publicURL: publicBase(cfg),
		logger:    logger,
	}, nil
}

// publicBase is the URL prefix objects are served from.
func publicBase(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err == nil && u.Host != "" {
			if cfg.PathStyle {
				return fmt.Sprintf("%s://%s/%s", u.Scheme, u.Host, cfg.Bucket)
			}
			return fmt.Sprintf("%s://%s.%s", u.Scheme, cfg.Bucket, u.Host)
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Upload stores an image under a fresh key and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, fileName string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", ErrEmptyFile
	}
	if len(body) > MaxImageSize {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxImageSize)
	}
	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}

	key := uuid.NewString() + strings.ToLower(path.Ext(fileName))
	if u.folder != "" {
		key = u.folder + "/" + key
	}

	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %w", err)
	}

	link := u.publicURL + "/" + key
	u.logger.Info().Str("key", key).Int("bytes", len(body)).Msg("Listing photo uploaded")
	return link, nil
}
