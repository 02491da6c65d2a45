package uploader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadReturnsHostedLink(t *testing.T) {
	var gotFilename string
	var gotPayload []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form field %q missing: %v", "file", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotFilename = header.Filename
		gotPayload, _ = io.ReadAll(file)
		fmt.Fprintf(w, "  https://%s/v/abc123.mp4\n", r.Host)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	c := New(srv.URL, host)
	link, err := c.Upload(context.Background(), "clip.mp4", []byte("fake video bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if want := "https://" + host + "/v/abc123.mp4"; link != want {
		t.Fatalf("link = %q, want %q (trimmed body)", link, want)
	}
	if gotFilename != "clip.mp4" {
		t.Fatalf("uploaded filename = %q, want clip.mp4", gotFilename)
	}
	if string(gotPayload) != "fake video bytes" {
		t.Fatalf("uploaded payload mismatch: %q", gotPayload)
	}
}

func TestUploadTreatsNonLinkBodyAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "storage full, try later")
	}))
	defer srv.Close()

	c := New(srv.URL, "files.example.com")
	_, err := c.Upload(context.Background(), "a.bin", []byte("x"))
	if err == nil {
		t.Fatalf("expected error for non-link body")
	}
	if !strings.Contains(err.Error(), "storage full") {
		t.Fatalf("error must preserve the service reply, got %v", err)
	}
}

func TestUploadRejectsLinkOnForeignDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "https://evil.example.org/abc")
	}))
	defer srv.Close()

	c := New(srv.URL, "files.example.com")
	if _, err := c.Upload(context.Background(), "a.bin", []byte("x")); err == nil {
		t.Fatalf("expected error for link outside the configured domain")
	}
}

func TestUploadAcceptsSubdomainLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "https://cdn.files.example.com/abc")
	}))
	defer srv.Close()

	c := New(srv.URL, "files.example.com")
	link, err := c.Upload(context.Background(), "a.bin", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if link != "https://cdn.files.example.com/abc" {
		t.Fatalf("link = %q", link)
	}
}

func TestUploadRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	c := New(srv.URL, "files.example.com")
	if _, err := c.Upload(context.Background(), "a.bin", []byte("x")); err == nil {
		t.Fatalf("expected error on http 413")
	}
}
