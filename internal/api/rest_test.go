package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRestClient_BuildsStoreScopedURLs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL+"/", "default")
	var out map[string]bool
	require.NoError(t, c.Get(context.Background(), "V1/customers/me", &out))
	require.Equal(t, "/rest/default/V1/customers/me", gotPath)
	require.True(t, out["ok"])
}

func TestRestClient_AttachesBearerFromTokenSource(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "default")
	c.SetTokenSource(StaticToken("tok123"))
	require.NoError(t, c.Get(context.Background(), "V1/customers/me", nil))
	require.Equal(t, "Bearer tok123", gotAuth)
}

func TestRestClient_RequestOptionsOverrideAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "default")
	c.SetTokenSource(StaticToken("tok123"))

	require.NoError(t, c.Get(context.Background(), "V1/guest-carts/abc", nil, WithBearer("other")))
	require.Equal(t, "Bearer other", gotAuth)

	require.NoError(t, c.Get(context.Background(), "V1/guest-carts/abc", nil, WithoutAuth()))
	require.Empty(t, gotAuth)
}

func TestRestClient_MapsStatusToSentinels(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"unauthorized", 401, `{"message":"The consumer isn't authorized"}`, ErrUnauthorized},
		{"forbidden", 403, `{"message":"forbidden"}`, ErrUnauthorized},
		{"not found", 404, `{"message":"No such entity with cartId = x"}`, ErrNotFound},
		{"server error", 500, `{"message":"boom"}`, ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewRestClient(srv.URL, "default")
			err := c.Get(context.Background(), "V1/whatever", nil)
			require.ErrorIs(t, err, tc.sentinel)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.status, apiErr.Status)
		})
	}
}

func TestRestClient_DecodesStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"message":"The password needs at least %1 characters.","code":"password_policy","parameters":[8]}`))
	}))
	defer srv.Close()

	c := NewRestClient(srv.URL, "default")
	err := c.Post(context.Background(), "V1/customers", map[string]string{}, nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "password_policy", apiErr.Code)
	require.Contains(t, apiErr.Message, "password")
	require.Len(t, apiErr.Parameters, 1)
}

func TestRestClient_TransportFailureIsUnavailable(t *testing.T) {
	c := NewRestClient("http://127.0.0.1:1", "default", WithTimeout(200*time.Millisecond))
	err := c.Get(context.Background(), "V1/customers/me", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRestClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewRestClient("http://127.0.0.1:1", "default")
	err := c.Get(ctx, "V1/customers/me", nil)
	require.ErrorIs(t, err, context.Canceled)
}
