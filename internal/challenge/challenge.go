// Package challenge implements the ACME HTTP-01 challenge responder: a
// tiny handler mounted on the plaintext listener that answers
// /.well-known/acme-challenge/<token> with the key authorization the
// ACME client published for that token.
package challenge

import (
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const pathPrefix = "/.well-known/acme-challenge/"

// Responder holds the token -> key-authorization map the ACME client
// publishes to and the router's HTTP listener reads from. It's safe
// for concurrent use: the ACME client publishes while the HTTP
// listener is already serving other hosts' challenges.
type Responder struct {
	mu    sync.RWMutex
	tokens map[string]string

	log *logrus.Entry
}

// New creates an empty responder.
func New(log *logrus.Entry) *Responder {
	return &Responder{tokens: make(map[string]string), log: log}
}

// Publish makes keyAuth available for token. Called by the ACME client
// before it tells the CA a challenge is ready for validation.
func (r *Responder) Publish(token, keyAuth string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = keyAuth
}

// Unpublish removes a token, normally once the CA has validated it (or
// the order has failed and retrying from scratch).
func (r *Responder) Unpublish(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
}

// Matches reports whether path is a challenge path this responder
// should handle, letting the router delegate before it ever looks at
// upstream routing.
func Matches(path string) bool {
	return strings.HasPrefix(path, pathPrefix)
}

// ServeHTTP answers a challenge path with the published key
// authorization, or 404 if the token is unknown (expired, already
// cleaned up, or simply never ours).
func (r *Responder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	token := strings.TrimPrefix(req.URL.Path, pathPrefix)

	r.mu.RLock()
	keyAuth, ok := r.tokens[token]
	r.mu.RUnlock()

	if !ok {
		if r.log != nil {
			r.log.WithField("token", token).Warn("acme challenge requested for unknown token")
		}
		http.NotFound(w, req)
		return
	}

	if r.log != nil {
		r.log.WithField("token", token).Debug("served acme challenge")
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(keyAuth))
}
