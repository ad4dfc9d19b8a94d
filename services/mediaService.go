package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	fig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/techagentng/aquawatch/config"
	errs "github.com/techagentng/aquawatch/errors"
)

const MaxImageSize = 5 * 1024 * 1024 // 5 MB

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is an uploaded picture held in memory.
type Image struct {
	Data        []byte
	ContentType string
}

// ImageStore persists report images and returns a URL for them.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// ReadImage loads and validates a multipart image upload. The content type is
// sniffed from the bytes rather than trusted from the client.
func ReadImage(fileHeader *multipart.FileHeader) (*Image, error) {
	if fileHeader.Size > MaxImageSize {
		return nil, errs.New(fmt.Sprintf("file size exceeds limit of %d bytes", MaxImageSize), http.StatusRequestEntityTooLarge)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %v", err)
	}
	if len(data) > MaxImageSize {
		return nil, errs.New(fmt.Sprintf("file size exceeds limit of %d bytes", MaxImageSize), http.StatusRequestEntityTooLarge)
	}
	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, errs.New(fmt.Sprintf("invalid file type: %s", contentType), http.StatusUnsupportedMediaType)
	}
	return &Image{Data: data, ContentType: contentType}, nil
}

// ImageKey builds a unique object key for a user's report image.
func ImageKey(userID uint, contentType string) string {
	return fmt.Sprintf("reports/%d_%d_%s%s", userID, time.Now().UnixNano(), uuid.New().String(), imageExtensions[contentType])
}

// NewImageStore picks S3 when a bucket is configured and the local upload
// directory otherwise.
func NewImageStore(ctx context.Context, conf *config.Config) (ImageStore, error) {
	if conf.UsesS3() {
		return NewS3ImageStore(ctx, conf)
	}
	return NewLocalImageStore(conf.UploadDir, conf.BaseUrl), nil
}

type S3ImageStore struct {
	client *s3.Client
	bucket string
	region string
}

func NewS3ImageStore(ctx context.Context, conf *config.Config) (*S3ImageStore, error) {
	opts := []func(*fig.LoadOptions) error{fig.WithRegion(conf.AWSRegion)}
	if conf.AWSAccessKeyID != "" {
		opts = append(opts, fig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AWSAccessKeyID, conf.AWSSecretAccessKey, ""),
		))
	}
	cfg, err := fig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %v", err)
	}
	return &S3ImageStore{
		client: s3.NewFromConfig(cfg),
		bucket: conf.AWSBucket,
		region: conf.AWSRegion,
	}, nil
}

func (s *S3ImageStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// LocalImageStore writes images below a directory served at /uploads.
type LocalImageStore struct {
	dir     string
	baseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	return &LocalImageStore{dir: dir, baseURL: baseURL}
}

func (l *LocalImageStore) Upload(_ context.Context, key, _ string, body []byte) (string, error) {
	dest := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("error creating upload folder: %v", err)
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return "", fmt.Errorf("error writing upload: %v", err)
	}
	return l.baseURL + "/uploads/" + key, nil
}
