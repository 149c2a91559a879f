package safety

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func classifierStub(t *testing.T, status string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req checkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.URL)
		_ = json.NewEncoder(w).Encode(checkResponse{SafetyStatus: status, Prediction: 0.1})
	}))
}

func TestCheck_Safe(t *testing.T) {
	srv := classifierStub(t, "SAFE")
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, time.Second)
	require.Equal(t, VerdictSafe, c.Check(context.Background(), "https://example.com"))
}

func TestCheck_Flagged(t *testing.T) {
	srv := classifierStub(t, "MALICIOUS")
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, time.Second)
	require.Equal(t, VerdictUnsafe, c.Check(context.Background(), "http://bit.ly/x"))
}

func TestCheck_ServerError_FailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, time.Second)
	require.Equal(t, VerdictUnsafe, c.Check(context.Background(), "https://example.com"))
}

func TestCheck_GarbageBody_FailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, time.Second)
	require.Equal(t, VerdictUnsafe, c.Check(context.Background(), "https://example.com"))
}

func TestCheck_Timeout_FailsClosed(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	c := NewHTTPClassifier(srv.URL, 50*time.Millisecond)
	start := time.Now()
	require.Equal(t, VerdictUnsafe, c.Check(context.Background(), "https://example.com"))
	require.Less(t, time.Since(start), time.Second, "check must be time-bounded")
}

func TestCheck_Unreachable_FailsClosed(t *testing.T) {
	c := NewHTTPClassifier("http://127.0.0.1:1", 200*time.Millisecond)
	require.Equal(t, VerdictUnsafe, c.Check(context.Background(), "https://example.com"))
}
