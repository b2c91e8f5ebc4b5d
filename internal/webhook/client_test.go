package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPost_SendsJSONAndReadsBody(t *testing.T) {
	var got Request
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(0)
	reply, err := c.Post(context.Background(), srv.URL, Request{Message: "hello", ID: "sess-1"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("unexpected content type: %q", contentType)
	}
	if got.Message != "hello" || got.ID != "sess-1" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if !reply.OK() || reply.Content() != "ok" {
		t.Fatalf("unexpected reply: status=%d content=%q", reply.StatusCode, reply.Content())
	}
}

func TestPost_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	reply, err := NewClient(0).Post(context.Background(), srv.URL, Request{Message: "x", ID: "s"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if reply.OK() {
		t.Fatalf("expected non-success status")
	}
	if reply.Content() != "boom" {
		t.Fatalf("unexpected content: %q", reply.Content())
	}
}

func TestPost_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(0).Post(context.Background(), url, Request{Message: "x", ID: "s"})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if msg := FailureContent(err); !strings.HasPrefix(msg, "request failed: ") {
		t.Fatalf("unexpected failure content: %q", msg)
	}
}

func TestPost_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(0).Post(ctx, srv.URL, Request{Message: "x", ID: "s"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPost_NilHTTPClient(t *testing.T) {
	c := &Client{}
	if _, err := c.Post(context.Background(), "http://unused", Request{}); err == nil {
		t.Fatalf("expected error for nil http client")
	}
}

func TestPost_OversizedReplyIsMarkedTruncated(t *testing.T) {
	big := strings.Repeat("x", maxBodyBytes+10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	}))
	defer srv.Close()

	reply, err := NewClient(0).Post(context.Background(), srv.URL, Request{Message: "x", ID: "s"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !reply.Truncated || len(reply.Body) != maxBodyBytes {
		t.Fatalf("expected a truncated body of %d bytes, got truncated=%v len=%d", maxBodyBytes, reply.Truncated, len(reply.Body))
	}
	if !strings.HasSuffix(reply.Content(), TruncatedMarker) {
		t.Fatalf("content should carry the truncation marker")
	}
}

func TestPost_ReplyAtCapIsNotTruncated(t *testing.T) {
	exact := strings.Repeat("y", maxBodyBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(exact))
	}))
	defer srv.Close()

	reply, err := NewClient(0).Post(context.Background(), srv.URL, Request{Message: "x", ID: "s"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if reply.Truncated || reply.Content() != exact {
		t.Fatalf("a reply exactly at the cap must pass through untouched, truncated=%v", reply.Truncated)
	}
}
