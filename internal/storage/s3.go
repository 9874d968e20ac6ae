// Package storage grants clients direct-to-S3 image uploads via presigned
// PUT URLs and deletes objects when their image records are removed. The
// backend never proxies image bytes.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// presignTTL bounds how long an upload grant stays usable.
const presignTTL = 5 * time.Minute

// UploadGrant is what a client needs to PUT one object and record it.
type UploadGrant struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
}

// ImageStore issues upload grants and removes stored objects.
type ImageStore struct {
	client s3iface.S3API
	bucket string
}

// NewImageStore builds an ImageStore against the given bucket.
func NewImageStore(region, accessKey, secretKey, bucket string) (*ImageStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &ImageStore{client: s3.New(sess), bucket: bucket}, nil
}

// ObjectKey derives the bucket key for one upload. Keys are namespaced per
// user and salted with a UUID so identical filenames never collide.
func ObjectKey(userID uint, fileName string) string {
	return fmt.Sprintf("images/%d/%s_%s", userID, uuid.NewString(), fileName)
}

// FileURL is the public URL an object will have once uploaded.
func FileURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
}

// KeyFromURL recovers the bucket key from a stored file URL. Empty when the
// URL does not look like an S3 object URL.
func KeyFromURL(fileURL string) string {
	const marker = ".com/"
	i := strings.Index(fileURL, marker)
	if i < 0 {
		return ""
	}
	return fileURL[i+len(marker):]
}

// PresignUpload issues a short-lived PUT grant for one image owned by
// userID.
func (s *ImageStore) PresignUpload(userID uint, fileName, contentType string) (*UploadGrant, error) {
	key := ObjectKey(userID, fileName)
	req, _ := s.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	uploadURL, err := req.Presign(presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload for %q: %w", key, err)
	}
	return &UploadGrant{
		UploadURL: uploadURL,
		FileURL:   FileURL(s.bucket, key),
		Key:       key,
	}, nil
}

// DeleteByURL removes the object a stored file URL points at. Unrecognized
// URLs are ignored; S3 delete is idempotent for missing keys.
func (s *ImageStore) DeleteByURL(ctx context.Context, fileURL string) error {
	key := KeyFromURL(fileURL)
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
