package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arenda/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal PNG header, enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestS3Uploader(t *testing.T) {
	var gotPath, gotACL, gotType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotACL = r.Header.Get("X-Amz-Acl")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger := zerolog.Nop()
	uploader, err := NewS3Uploader(config.StorageConfig{
		Endpoint:  server.URL,
		Region:    "us-east-1",
		Bucket:    "arenda-media",
		AccessKey: "key",
		SecretKey: "secret",
		Folder:    "/listings/",
		PathStyle: true,
	}, &logger)
	require.NoError(t, err)

	link, err := uploader.Upload(context.Background(), "Drill.PNG", pngBytes)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/arenda-media/listings/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ".png"), gotPath)
	assert.Equal(t, "public-read", gotACL)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, pngBytes, gotBody)
	assert.Equal(t, server.URL+gotPath, link)
}

func TestS3UploaderRejects(t *testing.T) {
	logger := zerolog.Nop()
	uploader, err := NewS3Uploader(config.StorageConfig{Region: "us-east-1", Bucket: "b", AccessKey: "k", SecretKey: "s"}, &logger)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = uploader.Upload(ctx, "empty.jpg", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = uploader.Upload(ctx, "notes.txt", []byte("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestS3UploaderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	defer server.Close()

	logger := zerolog.Nop()
	uploader, err := NewS3Uploader(config.StorageConfig{
		Endpoint: server.URL, Region: "us-east-1", Bucket: "b", AccessKey: "k", SecretKey: "s", PathStyle: true,
	}, &logger)
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), "a.png", pngBytes)
	assert.Error(t, err)
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBase(config.StorageConfig{PublicURL: "https://cdn.example.com/"}))
	assert.Equal(t, "https://udg-mobile.object.pscloud.io", publicBase(config.StorageConfig{Endpoint: "https://object.pscloud.io", Bucket: "udg-mobile"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicBase(config.StorageConfig{Bucket: "b", Region: "eu-west-1"}))
}
