package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionClientSendsNewestUserUtterance(t *testing.T) {
	var gotQuery, gotSession, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotSession = r.URL.Query().Get("session")
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"status": true, "result": "hello there"}`))
	}))
	defer srv.Close()

	c := NewSession(srv.URL, "secret")
	msgs := []Message{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "older question"},
		{Role: "assistant", Content: "older answer"},
		{Role: "user", Content: "newest question"},
	}
	resp, err := c.Generate(context.Background(), "omnibot-42", msgs)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "hello there" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if gotQuery != "newest question" {
		t.Fatalf("endpoint must receive only the newest user utterance, got %q", gotQuery)
	}
	if gotSession != "omnibot-42" || gotKey != "secret" {
		t.Fatalf("session/key not forwarded: session=%q key=%q", gotSession, gotKey)
	}
}

func TestSessionClientRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewSession(srv.URL, "")
	_, err := c.Generate(context.Background(), "s", []Message{{Role: "user", Content: "x"}})
	if err == nil {
		t.Fatalf("expected error on http 429")
	}
}

func TestSessionClientRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer srv.Close()

	c := NewSession(srv.URL, "")
	_, err := c.Generate(context.Background(), "s", []Message{{Role: "user", Content: "x"}})
	if err == nil {
		t.Fatalf("expected error on malformed body")
	}
}

func TestSessionClientRejectsVendorFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "message": "model offline"}`))
	}))
	defer srv.Close()

	c := NewSession(srv.URL, "")
	_, err := c.Generate(context.Background(), "s", []Message{{Role: "user", Content: "x"}})
	if err == nil {
		t.Fatalf("expected error on status=false")
	}
}

func TestSessionClientNeedsAUserMessage(t *testing.T) {
	c := NewSession("http://localhost:0", "")
	_, err := c.Generate(context.Background(), "s", []Message{{Role: "system", Content: "only system"}})
	if err == nil {
		t.Fatalf("expected error when no user message exists")
	}
}
