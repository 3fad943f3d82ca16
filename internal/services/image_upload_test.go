package services

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"forkhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestUploadWithoutFile(t *testing.T) {
	u := NewImageUploader(config.UploadConfig{LocalDir: t.TempDir()})
	url, err := u.Upload(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestUploadLocal(t *testing.T) {
	dir := t.TempDir()
	u := NewImageUploader(config.UploadConfig{LocalDir: dir, MaxBytes: 1 << 20})

	url, err := u.Upload(context.Background(), fileHeader(t, "me.PNG", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/upload/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/upload/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestUploadRejectsBadFiles(t *testing.T) {
	u := NewImageUploader(config.UploadConfig{LocalDir: t.TempDir(), MaxBytes: 4})

	_, err := u.Upload(context.Background(), fileHeader(t, "me.exe", []byte("abc")))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = u.Upload(context.Background(), fileHeader(t, "me.png", []byte("too large")))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUploadToImgur(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Client-ID test-client", r.Header.Get("Authorization"))
		assert.Equal(t, "base64", r.FormValue("type"))
		var resp ImgurResponse
		resp.Success = true
		resp.Status = 200
		resp.Data.ID = "abc123"
		resp.Data.Link = "https://i.imgur.com/abc123.png"
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	u := NewImageUploader(config.UploadConfig{ImgurClientID: "test-client"})
	u.endpoint = srv.URL

	url, err := u.Upload(context.Background(), fileHeader(t, "me.png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "https://i.imgur.com/abc123.png", url)
}

func TestImgurBreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ImgurResponse{Success: false, Status: 500})
	}))
	defer srv.Close()

	u := NewImageUploader(config.UploadConfig{ImgurClientID: "test-client"})
	u.endpoint = srv.URL

	for i := 0; i < imgurTripAfter; i++ {
		_, err := u.Upload(context.Background(), fileHeader(t, "me.png", []byte("png-bytes")))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrValidation)
	}

	_, err := u.Upload(context.Background(), fileHeader(t, "me.png", []byte("png-bytes")))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int32(imgurTripAfter), hits.Load())
}
