// Package objectstore wraps the S3 calls the ingest function makes: presigned
// upload URLs, raw file download, and Delta table directory upload.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wnkinc/delta-bridge/internal/apperr"
	"github.com/wnkinc/delta-bridge/internal/model"
)

// S3API lists the SDK calls the client uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignAPI is the presigning half of the S3 client.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Client is the object-store adapter for a single bucket.
type Client struct {
	s3        S3API
	presigner PresignAPI
	bucket    string
}

func New(api S3API, presigner PresignAPI, bucket string) *Client {
	return &Client{s3: api, presigner: presigner, bucket: bucket}
}

// Bucket returns the bucket this client operates on.
func (c *Client) Bucket() string { return c.bucket }

// PresignPut returns a time-limited URL allowing a single PUT of exactly the
// given key.
func (c *Client) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(model.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

// Download fetches an object into destDir and returns the local path. The
// local file keeps the object's base name. A missing key maps to ErrNotFound.
func (c *Client) Download(ctx context.Context, key, destDir string) (string, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", fmt.Errorf("object %s: %w", key, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("get object %s: %w: %w", key, apperr.ErrStorage, err)
	}
	defer out.Body.Close()

	local := filepath.Join(destDir, filepath.Base(key))
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", local, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		return "", fmt.Errorf("download %s: %w: %w", key, apperr.ErrStorage, err)
	}
	return local, nil
}

// UploadDir walks localDir and puts every regular file under keyPrefix,
// preserving relative paths. On failure, files already uploaded are left in
// place; the caller must not treat the destination as complete.
func (c *Client) UploadDir(ctx context.Context, localDir, keyPrefix string) error {
	return filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		key := keyPrefix + "/" + filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String(contentTypeOf(path)),
		})
		if err != nil {
			return fmt.Errorf("put object %s: %w: %w", key, apperr.ErrStorage, err)
		}
		return nil
	})
}

func contentTypeOf(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
