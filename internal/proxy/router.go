// Package proxy is the edge proxy's Router: a Host-header-keyed
// reverse proxy with a cached upstream per hostname, an HTTP-01
// challenge delegation path, an HTTP->HTTPS redirect, and a health
// gate that returns 503 before ever dialing an unhealthy backend.
package proxy

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ridgehq/ridge/internal/challenge"
	"github.com/ridgehq/ridge/internal/statestore"
)

// internalPathPrefix mirrors the origin project's reserved path
// namespace (there, "/luma-proxy/"): paths under it are handled by the
// proxy itself and never forwarded upstream.
const internalPathPrefix = "/_ridge/"

// responseTimeout bounds how long the reverse proxy transport waits
// for an upstream response before failing the request with 502.
const responseTimeout = 30 * time.Second

// Router is the HTTP/HTTPS entrypoint.
type Router struct {
	store     *statestore.Store
	responder *challenge.Responder
	log       *logrus.Entry

	httpsPort string

	cache     *backendCache
	proxiesMu sync.Mutex
	proxies   map[string]*httputil.ReverseProxy
}

// New builds a Router. httpsPort is used only to build the redirect
// target when HTTPS isn't served on the standard 443.
func New(store *statestore.Store, responder *challenge.Responder, httpsPort string, log *logrus.Entry) *Router {
	return &Router{
		store:     store,
		responder: responder,
		httpsPort: httpsPort,
		cache:     newBackendCache(),
		proxies:   make(map[string]*httputil.ReverseProxy),
		log:       log,
	}
}

// InvalidateHostname drops any cached upstream for hostname, called by
// the deployment coordinator immediately after a color switch so
// traffic moves to the new target without waiting out the cache TTL.
func (rt *Router) InvalidateHostname(hostname string) {
	rt.cache.invalidate(hostname)
}

// HTTPHandler serves the plaintext listener: ACME HTTP-01 challenges
// first, then either a redirect to HTTPS (entries with ssl_redirect) or
// a direct proxy pass-through (everyone else), per spec.md 4.D.
func (rt *Router) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if challenge.Matches(r.URL.Path) {
			rt.responder.ServeHTTP(w, r)
			return
		}

		hostname := stripPort(r.Host)
		entry, err := rt.store.GetByHostname(hostname)
		if err != nil {
			http.Error(w, "ridge: no route configured for this host", http.StatusNotFound)
			return
		}

		if entry.SSLRedirect {
			rt.handleRedirect(w, r, hostname)
			return
		}

		if !entry.Healthy {
			http.Error(w, "ridge: upstream temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		rt.proxyTo(w, r, entry)
	})
}

// HTTPSHandler serves the TLS listener: the internal path namespace,
// then hostname-routed proxying.
func (rt *Router) HTTPSHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hostname := stripPort(r.Host)

		if strings.HasPrefix(r.URL.Path, internalPathPrefix) {
			rt.handleInternal(w, r)
			return
		}

		entry, err := rt.store.GetByHostname(hostname)
		if err != nil {
			http.Error(w, "ridge: no route configured for this host", http.StatusNotFound)
			return
		}

		if !entry.Healthy {
			http.Error(w, "ridge: upstream temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		rt.proxyTo(w, r, entry)
	})
}

func (rt *Router) handleInternal(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, internalPathPrefix) {
	case "health":
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) proxyTo(w http.ResponseWriter, r *http.Request, entry statestore.RoutingEntry) {
	hostname := entry.Hostname
	target := entry.Target

	resolved, ok := rt.cache.get(hostname)
	if !ok {
		resolved = target
		rt.cache.set(hostname, resolved)
	}

	timeout := responseTimeout
	if entry.ResponseTimeout > 0 {
		timeout = entry.ResponseTimeout
	}

	proxy, err := rt.reverseProxyFor(resolved, entry.ForwardHeaders, timeout)
	if err != nil {
		if rt.log != nil {
			rt.log.WithField("hostname", hostname).WithError(err).Error("failed to build reverse proxy")
		}
		http.Error(w, "ridge: error routing request", http.StatusBadGateway)
		return
	}

	proxy.ServeHTTP(w, r)
}

// reverseProxyFor returns a cached *httputil.ReverseProxy for a dial
// target, building one on first use. Reusing the proxy (and therefore
// its underlying transport and connection pool) across requests avoids
// paying connection setup cost on every single proxied request.
func (rt *Router) reverseProxyFor(target string, forwardHeaders bool, timeout time.Duration) (*httputil.ReverseProxy, error) {
	rt.proxiesMu.Lock()
	defer rt.proxiesMu.Unlock()

	key := fmt.Sprintf("%s|%t|%s", target, forwardHeaders, timeout)
	if p, ok := rt.proxies[key]; ok {
		return p, nil
	}

	targetURL, err := url.Parse("http://" + target)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream target %q: %w", target, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)
	proxy.Transport = &http.Transport{
		ResponseHeaderTimeout: timeout,
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
	}

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		// req.Host is left untouched: the client-supplied Host header
		// is what gets forwarded upstream (spec.md 4.D).
		if forwardHeaders {
			if clientIP, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
				req.Header.Set("X-Real-IP", clientIP)
				if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
					req.Header.Set("X-Forwarded-For", prior+", "+clientIP)
				} else {
					req.Header.Set("X-Forwarded-For", clientIP)
				}
			}
			req.Header.Set("X-Forwarded-Proto", "https")
			req.Header.Set("X-Forwarded-Host", req.Host)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if rt.log != nil {
			rt.log.WithField("target", target).WithError(err).Warn("upstream request failed")
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("ridge: upstream unavailable"))
	}

	rt.proxies[key] = proxy
	return proxy, nil
}

// handleRedirect sends a 301 to the HTTPS equivalent of the request,
// preserving path and query exactly as the origin project's
// handleHTTPRedirect does.
func (rt *Router) handleRedirect(w http.ResponseWriter, r *http.Request, hostname string) {
	targetHost := hostname
	if rt.httpsPort != "" && rt.httpsPort != "443" {
		targetHost = net.JoinHostPort(hostname, rt.httpsPort)
	}

	target := &url.URL{
		Scheme:   "https",
		Host:     targetHost,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}

	http.Redirect(w, r, target.String(), http.StatusMovedPermanently)
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// TLSConfig returns the TLS configuration for the HTTPS listener.
func (rt *Router) TLSConfig() *tls.Config {
	return serverTLSConfig(rt.store)
}
