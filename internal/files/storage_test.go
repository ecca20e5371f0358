package files

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStoresObjectAndReturnsURL(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Token: "secret"})
	require.NoError(t, err)

	url, err := client.Upload(context.Background(), "user-1/receipt.pdf", strings.NewReader("pdf bytes"), 9)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/user-1/receipt.pdf", url)
	assert.Equal(t, "/user-1/receipt.pdf", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "pdf bytes", gotBody)
}

func TestUploadSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "user-1/doc.txt", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRemoveTreatsMissingObjectAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	assert.NoError(t, client.Remove(context.Background(), "user-1/gone.pdf"))
}

func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestObjectPathScopesToUser(t *testing.T) {
	p := ObjectPath("user-9", "statements/march.pdf")
	assert.True(t, strings.HasPrefix(p, "user-9/"), p)
	assert.True(t, strings.HasSuffix(p, "-march.pdf"), p)
}
