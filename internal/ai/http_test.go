package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDoJSONPost(t *testing.T) {
	type reply struct {
		Value string `json:"value"`
	}

	t.Run("success with headers", func(t *testing.T) {
		var gotContentType, gotCustom string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			gotCustom = r.Header.Get("X-Custom")
			_, _ = w.Write([]byte(`{"value":"hello"}`))
		}))
		defer server.Close()

		resp, err := doJSONPost[reply](context.Background(), server.Client(), server.URL, map[string]string{"a": "b"}, map[string]string{"X-Custom": "yes"})
		if err != nil {
			t.Fatalf("doJSONPost() error = %v", err)
		}
		if resp.Value != "hello" {
			t.Errorf("response value = %q, want hello", resp.Value)
		}
		if gotContentType != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", gotContentType)
		}
		if gotCustom != "yes" {
			t.Errorf("X-Custom = %q, want yes", gotCustom)
		}
	})

	t.Run("non-200 includes status and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
		}))
		defer server.Close()

		_, err := doJSONPost[reply](context.Background(), server.Client(), server.URL, nil, nil)
		if err == nil {
			t.Fatal("doJSONPost() expected error")
		}
		if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "slow down") {
			t.Errorf("error = %v, want status and body", err)
		}
	})

	t.Run("malformed response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		if _, err := doJSONPost[reply](context.Background(), server.Client(), server.URL, nil, nil); err == nil {
			t.Fatal("doJSONPost() expected unmarshal error")
		}
	})
}
