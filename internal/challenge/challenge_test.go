package challenge

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatches(t *testing.T) {
	cases := map[string]bool{
		"/.well-known/acme-challenge/abc123": true,
		"/.well-known/acme-challenge/":       true,
		"/other/path":                        false,
		"/":                                  false,
	}
	for path, want := range cases {
		if got := Matches(path); got != want {
			t.Errorf("Matches(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestServeHTTPPublished(t *testing.T) {
	r := New(nil)
	r.Publish("tok1", "tok1.keyauth")

	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/tok1", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if rw.Body.String() != "tok1.keyauth" {
		t.Fatalf("unexpected body: %q", rw.Body.String())
	}
}

func TestServeHTTPUnknownToken(t *testing.T) {
	r := New(nil)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/missing", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestUnpublish(t *testing.T) {
	r := New(nil)
	r.Publish("tok1", "keyauth")
	r.Unpublish("tok1")

	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/tok1", nil)
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)

	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after unpublish, got %d", rw.Code)
	}
}
