package wordpress_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwise/wp-publisher/internal/wordpress"
)

func TestUploadFromURL(t *testing.T) {
	imageBytes := []byte("png-pixel-data")

	var gotContentType, gotDisposition string
	var gotData []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imageBytes)
	})
	mux.HandleFunc("/wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotDisposition = r.Header.Get("Content-Disposition")
		gotData, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":17,"source_url":"https://blog.example/wp-content/uploads/cat.png"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient()
	media, err := client.UploadFromURL(context.Background(), testCreds(server.URL), server.URL+"/cat.png")
	require.NoError(t, err)

	assert.Equal(t, int64(17), media.MediaID)
	assert.Equal(t, "https://blog.example/wp-content/uploads/cat.png", media.SourceURL)
	assert.Equal(t, "image/png", gotContentType)
	assert.Contains(t, gotDisposition, "attachment")
	assert.Contains(t, gotDisposition, ".png")
	assert.Equal(t, imageBytes, gotData)
}

func TestUploadFromURL_DownloadFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient()
	media, err := client.UploadFromURL(context.Background(), testCreds(server.URL), server.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Nil(t, media)
}

func TestUploadFromBase64(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	var uploadContentType string
	var altTextCalls int
	var gotAltBody map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		uploadContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":23,"source_url":"https://blog.example/wp-content/uploads/fig.jpg"}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/media/23", func(w http.ResponseWriter, r *http.Request) {
		altTextCalls++
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotAltBody))
		_, _ = w.Write([]byte(`{"id":23}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient()
	media, err := client.UploadFromBase64(context.Background(), testCreds(server.URL), raw, "fig.jpg", "A figure")
	require.NoError(t, err)

	assert.Equal(t, int64(23), media.MediaID)
	assert.Equal(t, "A figure", media.AltText)
	assert.Equal(t, "image/jpeg", uploadContentType)
	assert.Equal(t, 1, altTextCalls)
	assert.Equal(t, "A figure", gotAltBody["alt_text"])
}

func TestUploadFromBase64_DataURI(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	payload := "data:image/png;base64," + raw

	var uploadContentType string
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		uploadContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "png-bytes", string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":5,"source_url":"https://blog.example/p.png"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient()
	media, err := client.UploadFromBase64(context.Background(), testCreds(server.URL), payload, "", "")
	require.NoError(t, err)

	assert.Equal(t, int64(5), media.MediaID)
	assert.Equal(t, "image/png", uploadContentType)
}

func TestUploadFromBase64_AltTextFailureNonFatal(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":31,"source_url":"https://blog.example/x.jpg"}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/media/31", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient()
	media, err := client.UploadFromBase64(context.Background(), testCreds(server.URL), raw, "x.jpg", "alt")
	require.NoError(t, err)
	assert.Equal(t, int64(31), media.MediaID)
}

func TestUploadFromBase64_InvalidPayload(t *testing.T) {
	client := newTestClient()
	_, err := client.UploadFromBase64(context.Background(), testCreds("https://blog.example"), "%%%not-base64%%%", "", "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode base64"))
}

func TestUpload_MissingCredentials(t *testing.T) {
	client := newTestClient()

	_, err := client.UploadFromURL(context.Background(), wordpress.Credentials{}, "https://example.com/a.jpg")
	assert.ErrorIs(t, err, wordpress.ErrMissingCredentials)

	_, err = client.UploadFromBase64(context.Background(), wordpress.Credentials{}, "aGk=", "", "")
	assert.ErrorIs(t, err, wordpress.ErrMissingCredentials)
}
