package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req VectorizeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.FilePath == "/bad.png" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail": "cannot identify image file"}`))
			return
		}
		json.NewEncoder(w).Encode(VectorizeResponse{Vector: make([]float32, 512)})
	}))
	defer srv.Close()

	client := srv.Client()
	assert.NoError(t, sendRequest(client, srv.URL, "/ok.png", 512))

	err := sendRequest(client, srv.URL, "/ok.png", 768)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 768")

	err = sendRequest(client, srv.URL, "/bad.png", 512)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot identify image file")
}

func TestRunTest_RunsEveryOp(t *testing.T) {
	var count atomic.Int64
	seen := make([]atomic.Bool, 50)

	runTest(50, 7, func(i int) {
		count.Add(1)
		seen[i].Store(true)
	})

	assert.Equal(t, int64(50), count.Load())
	for i := range seen {
		assert.True(t, seen[i].Load(), "op %d not run", i)
	}
}
