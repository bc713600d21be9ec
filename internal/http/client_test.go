package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/price-aggregator/internal/http/ratelimit"
)

func testConfig(retries int) ratelimit.Config {
	return ratelimit.Config{RequestsPerSecond: 0, MaxRetries: retries, InitialBackoffMs: 1, MaxBackoffMs: 5}
}

func TestGetBytes_Brotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write([]byte("<html>₹120</html>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		rw.Header().Set("Content-Encoding", "br")
		rw.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := NewClient(testConfig(0), 0).GetBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>₹120</html>", string(body))
}

func TestGetBytes_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Encoding", "gzip")
		rw.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := NewClient(testConfig(0), 0).GetBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(body))
}

func TestGetText_Charset(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"header latin1", "text/html; charset=iso-8859-1", []byte("<p>Caf\xe9</p>")},
		{"meta windows-1252", "text/html", []byte(`<html><head><meta charset="windows-1252"></head><p>Caf` + "\xe9" + `</p></html>`)},
		{"utf-8", "text/html; charset=utf-8", []byte("<p>Café</p>")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				rw.Header().Set("Content-Type", tt.contentType)
				rw.Write(tt.body)
			}))
			defer srv.Close()

			text, err := NewClient(testConfig(0), 0).GetText(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Contains(t, text, "Café")
		})
	}
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			rw.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		rw.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewClient(testConfig(2), 0).GetBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(0), 0).GetBytes(context.Background(), srv.URL)
	require.Error(t, err)

	var retryErr *ratelimit.FetchRetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, http.StatusBadGateway, retryErr.LastStatus)
	assert.Equal(t, 1, retryErr.Attempts)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		rw.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(3), 0).GetBytes(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(testConfig(3), 0).GetBytes(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
