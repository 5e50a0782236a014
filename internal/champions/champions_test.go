package champions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRegistry(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Contains(266))
	assert.False(t, r.Contains(0))
	assert.Equal(t, "Ahri", r.Name(103))
	assert.Equal(t, "Champion 9999", r.Name(9999))
	ids := r.IDs()
	require.Equal(t, len(builtin), len(ids))
	assert.IsIncreasing(t, ids)
}

func TestRefreshFromDataDragon(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["14.1.1","13.24.1"]`))
	})
	mux.HandleFunc("/cdn/14.1.1/data/en_US/champion.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"Ahri":{"id":"Ahri","key":"103","name":"Ahri"},"Bad":{"id":"Bad","key":"x","name":"Bad"}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewRegistry()
	err := Loader{BaseURL: srv.URL, Client: srv.Client()}.Refresh(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "14.1.1", r.Version())
	assert.True(t, r.Contains(103))
}

func TestRefreshKeepsRegistryOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewRegistry()
	err := Loader{BaseURL: srv.URL, Client: srv.Client()}.Refresh(context.Background(), r)
	require.Error(t, err)
	assert.Equal(t, len(builtin), r.Len())
	assert.Equal(t, "builtin", r.Version())
}
