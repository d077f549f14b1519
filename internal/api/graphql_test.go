package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGraphQLClient_PostsQueryAndDecodesData(t *testing.T) {
	var gotBody gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"customerCart":{"id":"auth-cart-1"}}}`))
	}))
	defer srv.Close()

	c := NewGraphQLClient(srv.URL)
	var out struct {
		CustomerCart struct {
			ID string `json:"id"`
		} `json:"customerCart"`
	}
	require.NoError(t, c.Execute(context.Background(), QueryCustomerCart, nil, &out))
	require.Equal(t, QueryCustomerCart, gotBody.Query)
	require.Equal(t, "auth-cart-1", out.CustomerCart.ID)
}

func TestGraphQLClient_AttachesBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := NewGraphQLClient(srv.URL)
	c.SetTokenSource(StaticToken("tok"))
	require.NoError(t, c.Execute(context.Background(), QueryCustomerCart, nil, nil))
	require.Equal(t, "Bearer tok", gotAuth)
}

func TestGraphQLClient_MapsErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		category string
		sentinel error
	}{
		{"authorization", "graphql-authorization", ErrUnauthorized},
		{"no such entity", "graphql-no-such-entity", ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				resp := map[string]any{
					"errors": []map[string]any{{
						"message":    "denied",
						"extensions": map[string]string{"category": tc.category},
					}},
				}
				json.NewEncoder(w).Encode(resp)
			}))
			defer srv.Close()

			c := NewGraphQLClient(srv.URL)
			err := c.Execute(context.Background(), QueryCartView, map[string]any{"cart_id": "x"}, nil)
			require.ErrorIs(t, err, tc.sentinel)
		})
	}
}

func TestGraphQLClient_UnknownCategoryStillErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"internal","extensions":{"category":"graphql"}}]}`))
	}))
	defer srv.Close()

	c := NewGraphQLClient(srv.URL)
	err := c.Execute(context.Background(), QueryCartView, nil, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.NotErrorIs(t, err, ErrNotFound)
}
