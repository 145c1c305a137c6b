package net

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	client, err := GetHTTPClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.Jar)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": "ok"}`))
	}))
	defer srv.Close()

	client, err := GetHTTPClient()
	require.NoError(t, err)

	var out struct {
		Value string `json:"value"`
	}
	err = GetJSON(context.Background(), client, srv.URL, map[string]string{"X-API-Key": "test-key"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestPostJSON_EchoesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.EqualValues(t, 100, in["limit"])
		_, _ = w.Write([]byte(`{"total": 1}`))
	}))
	defer srv.Close()

	client, err := GetHTTPClient()
	require.NoError(t, err)

	var out struct {
		Total int `json:"total"`
	}
	err = PostJSON(context.Background(), client, srv.URL, nil, map[string]int{"limit": 100}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
}

func TestGetJSON_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := GetHTTPClient()
	require.NoError(t, err)

	var out struct{}
	err = GetJSON(context.Background(), client, srv.URL, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetJSON_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := GetHTTPClient()
	require.NoError(t, err)

	var out struct{}
	err = GetJSON(context.Background(), client, srv.URL, nil, &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "boom")
}
