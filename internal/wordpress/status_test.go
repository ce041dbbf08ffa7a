package wordpress_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftwise/wp-publisher/internal/models"
	"github.com/draftwise/wp-publisher/internal/wordpress"
)

func TestFetchStatus(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"status":"future","link":"https://blog.example/?p=42"}`))
	}))
	defer server.Close()

	client := newTestClient()
	status, err := client.FetchStatus(context.Background(), testCreds(server.URL), 42)
	require.NoError(t, err)

	assert.Equal(t, "/wp-json/wp/v2/posts/42", gotPath)
	assert.Equal(t, "context=edit", gotQuery)
	assert.Equal(t, "future", status.Status)
	assert.Equal(t, "https://blog.example/?p=42", status.URL)
}

func TestFetchStatus_PostDeleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient()
	_, err := client.FetchStatus(context.Background(), testCreds(server.URL), 42)
	require.ErrorIs(t, err, wordpress.ErrPostNotFound)
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		remote string
		want   models.ArticleStatus
	}{
		{"publish", models.StatusPublished},
		{"private", models.StatusPublished},
		{"future", models.StatusScheduled},
		{"draft", models.StatusDraft},
		{"pending", models.StatusDraft},
		{"trash", models.StatusDraft},
		{"some-new-status", models.StatusDraft},
		{"", models.StatusDraft},
	}

	for _, tt := range tests {
		if got := wordpress.MapStatus(tt.remote); got != tt.want {
			t.Errorf("MapStatus(%q) = %v, want %v", tt.remote, got, tt.want)
		}
	}
}
