package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"motoverse/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTooLarge rejects an upload before any network call is attempted.
var ErrTooLarge = errors.New("file exceeds the upload size limit")

// Uploader pushes product images to the hosted object store and returns
// publicly resolvable URLs.
type Uploader struct {
	baseURL string
	bucket  string
	apiKey  string
	maxSize int64
	http    *http.Client
	logger  *zap.Logger
}

// NewUploader creates an uploader against the storage service.
func NewUploader(baseURL, bucket, apiKey string, maxSize int64) *Uploader {
	return &Uploader{
		baseURL: baseURL,
		bucket:  bucket,
		apiKey:  apiKey,
		maxSize: maxSize,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  util.GetLogger(),
	}
}

// Upload stores the file under a random name keeping its extension and
// returns the public URL. Files over the size cap are rejected here, on the
// client side of the storage service.
func (u *Uploader) Upload(ctx context.Context, filename string, size int64, content io.Reader) (string, error) {
	if size > u.maxSize {
		util.UploadsRejectedTotal.Inc()
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, u.maxSize)
	}

	objectName := uuid.New().String() + filepath.Ext(filename)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", objectName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, io.LimitReader(content, u.maxSize)); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/object/%s/%s", u.baseURL, u.bucket, objectName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("apikey", u.apiKey)

	res, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage service unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload failed: %s", res.Status)
	}

	publicURL := fmt.Sprintf("%s/object/public/%s/%s", u.baseURL, u.bucket, objectName)
	u.logger.Info("Image uploaded",
		zap.String("object", objectName),
		zap.Int64("size", size))
	return publicURL, nil
}

// Reachable checks whether the storage service answers at all; used by the
// diagnostics report.
func (u *Uploader) Reachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/bucket", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", u.apiKey)

	res, err := u.http.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("storage service error: %s", res.Status)
	}
	return nil
}
