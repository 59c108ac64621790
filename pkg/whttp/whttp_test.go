package whttp

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><head><title>\n Base - Sheet \n</title></head><body><table></table></body></html>")
	}))
	defer srv.Close()

	client, err := NewClient("", 0)
	require.NoError(t, err)
	res, err := Send(&Request{URL: srv.URL, Headers: []Header{{Name: "X-Test", Value: "yes"}}}, client)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "Base - Sheet", res.Title)
	assert.Contains(t, res.Body, "<table>")
}

func TestSendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient("", 0)
	require.NoError(t, err)
	_, err = Send(&Request{URL: srv.URL}, client)
	assert.Error(t, err)
}

func TestNewClientBadProxy(t *testing.T) {
	_, err := NewClient("://bad", 1)
	assert.Error(t, err)
}
