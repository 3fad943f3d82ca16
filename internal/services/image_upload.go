package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"forkhub/internal/config"
	"forkhub/internal/logging"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	imgurEndpoint = "https://api.imgur.com/3/image"
	// imgurTripAfter consecutive failures open the breaker.
	imgurTripAfter = 3
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImgurResponse Imgur API response
type ImgurResponse struct {
	Data struct {
		ID   string `json:"id"`
		Link string `json:"link"`
		Type string `json:"type"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// ImageUploader stores profile images on Imgur when a client id is
// configured and on local disk otherwise.
type ImageUploader struct {
	clientID  string
	endpoint  string
	localDir  string
	urlPrefix string
	maxBytes  int64
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[string]
}

func NewImageUploader(cfg config.UploadConfig) *ImageUploader {
	return &ImageUploader{
		clientID:  cfg.ImgurClientID,
		endpoint:  imgurEndpoint,
		localDir:  cfg.LocalDir,
		urlPrefix: "/upload/",
		maxBytes:  cfg.MaxBytes,
		client:    &http.Client{Timeout: 30 * time.Second},
		breaker:   newImgurBreaker(),
	}
}

func newImgurBreaker() *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "imgur",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= imgurTripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})
}

// Upload returns the URL of the stored image, or "" when no file was sent.
func (u *ImageUploader) Upload(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if header == nil || header.Size == 0 {
		return "", nil
	}
	if u.maxBytes > 0 && header.Size > u.maxBytes {
		return "", validationError("Image must be smaller than %d MB.", u.maxBytes>>20)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", validationError("Unsupported image type %q.", ext)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	if u.clientID == "" {
		return u.saveLocal(file, ext)
	}

	link, err := u.breaker.Execute(func() (string, error) {
		return u.uploadToImgur(ctx, file)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", validationError("Image service is unavailable. Please try again later.")
	}
	return link, err
}

func (u *ImageUploader) saveLocal(file io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(u.localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(u.localDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return u.urlPrefix + name, nil
}

func (u *ImageUploader) uploadToImgur(ctx context.Context, file io.Reader) (string, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)
	if err := writer.WriteField("image", base64.StdEncoding.EncodeToString(fileBytes)); err != nil {
		return "", fmt.Errorf("failed to write request body: %w", err)
	}
	if err := writer.WriteField("type", "base64"); err != nil {
		return "", fmt.Errorf("failed to write request body: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.clientID)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgur request failed: %w", err)
	}
	defer resp.Body.Close()

	var imgurResp ImgurResponse
	if err := json.NewDecoder(resp.Body).Decode(&imgurResp); err != nil {
		return "", fmt.Errorf("failed to decode imgur response: %w", err)
	}
	if !imgurResp.Success {
		return "", fmt.Errorf("imgur upload failed: status %d", imgurResp.Status)
	}

	logging.Debug().Str("id", imgurResp.Data.ID).Msg("Image uploaded to imgur")
	return imgurResp.Data.Link, nil
}
