package proxy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ridgehq/ridge/internal/challenge"
	"github.com/ridgehq/ridge/internal/statestore"
)

func TestHTTPHandlerDelegatesChallenge(t *testing.T) {
	store := statestore.New("")
	responder := challenge.New(nil)
	responder.Publish("tok", "tok.keyauth")

	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/tok", nil)
	rw := httptest.NewRecorder()
	rt.HTTPHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusOK || rw.Body.String() != "tok.keyauth" {
		t.Fatalf("expected challenge response, got %d %q", rw.Code, rw.Body.String())
	}
}

func TestHTTPHandlerRedirectsOtherwise(t *testing.T) {
	store := statestore.New("")
	store.Put(statestore.RoutingEntry{Project: "demo", Hostname: "demo.example.com", Target: "10.0.0.1:8080", SSLRedirect: true})
	responder := challenge.New(nil)
	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "http://demo.example.com/some/path?x=1", nil)
	rw := httptest.NewRecorder()
	rt.HTTPHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rw.Code)
	}
	loc := rw.Header().Get("Location")
	if loc != "https://demo.example.com/some/path?x=1" {
		t.Fatalf("unexpected redirect location: %q", loc)
	}
}

func TestHTTPHandlerRedirectsWithNonStandardPort(t *testing.T) {
	store := statestore.New("")
	store.Put(statestore.RoutingEntry{Project: "demo", Hostname: "demo.example.com", Target: "10.0.0.1:8080", SSLRedirect: true})
	responder := challenge.New(nil)
	rt := New(store, responder, "8443", nil)

	req := httptest.NewRequest(http.MethodGet, "http://demo.example.com/path", nil)
	rw := httptest.NewRecorder()
	rt.HTTPHandler().ServeHTTP(rw, req)

	loc := rw.Header().Get("Location")
	if loc != "https://demo.example.com:8443/path" {
		t.Fatalf("unexpected redirect location: %q", loc)
	}
}

func TestHTTPHandlerUnknownHostReturns404(t *testing.T) {
	store := statestore.New("")
	responder := challenge.New(nil)
	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "http://unknown.example.com/", nil)
	rw := httptest.NewRecorder()
	rt.HTTPHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestHTTPSHandlerUnknownHostReturns404(t *testing.T) {
	store := statestore.New("")
	responder := challenge.New(nil)
	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "https://unknown.example.com/", nil)
	rw := httptest.NewRecorder()
	rt.HTTPSHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestHTTPSHandlerUnhealthyReturns503(t *testing.T) {
	store := statestore.New("")
	store.Put(statestore.RoutingEntry{Project: "demo", Hostname: "demo.example.com", Target: "10.0.0.1:8080", Healthy: false})

	responder := challenge.New(nil)
	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "https://demo.example.com/", nil)
	rw := httptest.NewRecorder()
	rt.HTTPSHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
}

func TestHTTPSHandlerForwardsHeadersWhenEnabled(t *testing.T) {
	var gotXFF, gotXRealIP, gotProto, gotHost string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotXFF = r.Header.Get("X-Forwarded-For")
		gotXRealIP = r.Header.Get("X-Real-IP")
		gotProto = r.Header.Get("X-Forwarded-Proto")
		gotHost = r.Header.Get("X-Forwarded-Host")
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()
	backendURL, _ := url.Parse(backend.URL)

	store := statestore.New("")
	store.Put(statestore.RoutingEntry{
		Project: "demo", Hostname: "demo.example.com", Target: backendURL.Host,
		Healthy: true, ForwardHeaders: true,
	})
	responder := challenge.New(nil)
	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "https://demo.example.com/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	rw := httptest.NewRecorder()
	rt.HTTPSHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if gotXFF != "203.0.113.5" {
		t.Fatalf("expected X-Forwarded-For 203.0.113.5, got %q", gotXFF)
	}
	if gotXRealIP != "203.0.113.5" {
		t.Fatalf("expected X-Real-IP 203.0.113.5, got %q", gotXRealIP)
	}
	if gotProto != "https" {
		t.Fatalf("expected X-Forwarded-Proto https, got %q", gotProto)
	}
	if gotHost != "demo.example.com" {
		t.Fatalf("expected X-Forwarded-Host demo.example.com, got %q", gotHost)
	}
}

func TestHTTPSHandlerOmitsForwardHeadersWhenDisabled(t *testing.T) {
	var gotXFF string
	seen := false
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotXFF = r.Header.Get("X-Forwarded-For")
		seen = true
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()
	backendURL, _ := url.Parse(backend.URL)

	store := statestore.New("")
	store.Put(statestore.RoutingEntry{
		Project: "demo", Hostname: "demo.example.com", Target: backendURL.Host,
		Healthy: true, ForwardHeaders: false,
	})
	responder := challenge.New(nil)
	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "https://demo.example.com/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	rw := httptest.NewRecorder()
	rt.HTTPSHandler().ServeHTTP(rw, req)

	if !seen {
		t.Fatalf("backend was never called")
	}
	if gotXFF != "" {
		t.Fatalf("expected no X-Forwarded-For header, got %q", gotXFF)
	}
}

func TestHTTPSHandlerInternalHealthEndpoint(t *testing.T) {
	store := statestore.New("")
	responder := challenge.New(nil)
	rt := New(store, responder, "443", nil)

	req := httptest.NewRequest(http.MethodGet, "https://demo.example.com/_ridge/health", nil)
	rw := httptest.NewRecorder()
	rt.HTTPSHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}
