package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "pawfect-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "1201 Genève", r.URL.Query().Get("q"))
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)
	c.UserAgent = "pawfect-test"
	c.Retries = 2
	c.Backoff = time.Millisecond

	var out struct {
		OK bool `json:"ok"`
	}
	err = c.GetJSON(context.Background(), "/search", url.Values{"q": {"1201 Genève"}}, nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoJSON_DoesNotRetry4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(time.Second)
	c.Retries = 3
	c.Backoff = time.Millisecond

	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL+"/verify", nil, map[string]string{"token": "x"}, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "nope", httpErr.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolveURL_RelativeRequiresBase(t *testing.T) {
	c := New(0)
	_, err := c.resolveURL("/search")
	assert.Error(t, err)

	_, err = NewWithBaseURL("::bad", time.Second)
	assert.Error(t, err)
}

type refusingTransport struct {
	calls int32
	err   error
}

func (rt *refusingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&rt.calls, 1)
	return nil, rt.err
}

func TestDoJSON_RetriesTransportErrors(t *testing.T) {
	errRefused := errors.New("connection refused")
	rt := &refusingTransport{err: errRefused}

	c := New(time.Second)
	c.HTTP.Transport = rt
	c.Retries = 2
	c.Backoff = time.Millisecond

	err := c.DoJSON(context.Background(), http.MethodGet, "http://geocoder.invalid/search", nil, nil, nil)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, int32(3), atomic.LoadInt32(&rt.calls))
}

func TestDoJSON_DecodeErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("httpclient: do request"))
	}))
	defer srv.Close()

	c := New(time.Second)
	c.Retries = 3
	c.Backoff = time.Millisecond

	var out map[string]any
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, &out)
	require.Error(t, err)
	var transportErr *TransportError
	assert.False(t, errors.As(err, &transportErr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
