// Package api implements the Management API: the loopback-only HTTP
// surface the deployment coordinator and the ridgectl CLI use to
// upsert routing entries, drive atomic traffic switches, and manage
// certificates. Never exposed on the public listeners.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ridgehq/ridge/internal/statestore"
)

// CertIssuer is the subset of the ACME client the deploy and renewal
// endpoints need, kept as an interface so api doesn't import acme
// directly. Obtain drives a first-time acquisition; Renew drives the
// same flow but marks the certificate CertRenewing while in flight.
type CertIssuer interface {
	Obtain(hostname string) error
	Renew(hostname string) error
}

// InvalidationHook lets the router drop its cached upstream the
// moment a switch or health override lands, instead of waiting out
// the cache TTL.
type InvalidationHook interface {
	InvalidateHostname(hostname string)
}

// Dependencies groups everything the router needs to construct its
// handlers, following the teacher pack's one-struct-per-router
// convention so adding a dependency never touches New's signature.
type Dependencies struct {
	Store  *statestore.Store
	Certs  CertIssuer
	Router InvalidationHook
	Token  string
	Log    *logrus.Entry
}

// New constructs the Management API's http.Handler.
func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if deps.Log != nil {
		r.Use(requestLogger(deps.Log))
	}
	r.Use(bearerAuth(deps.Token))

	h := &handler{deps: deps}

	r.Route("/api", func(api chi.Router) {
		api.Post("/deploy", h.postDeploy)
		api.Get("/hosts", h.listHosts)
		api.Patch("/hosts/{host}", h.patchHost)
		api.Delete("/hosts/{host}", h.deleteHost)
		api.Put("/hosts/{host}/health", h.putHostHealth)
		api.Post("/cert/renew/{host}", h.renewCert)
		api.Put("/staging", h.putStaging)
		api.Get("/status", h.getStatus)
	})

	return r
}

func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithField("method", r.Method).WithField("path", r.URL.Path).Debug("management api request")
			next.ServeHTTP(w, r)
		})
	}
}

// bearerAuth rejects any request missing the configured bearer token.
// An empty configured token disables auth, used only in tests against
// a loopback listener that's never exposed.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, KindConfig, "missing or invalid bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
