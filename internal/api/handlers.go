package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ridgehq/ridge/internal/statestore"
)

type handler struct {
	deps Dependencies
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, kind ErrorKind, message string, status int) {
	if status == 0 {
		status = httpStatusFor(kind)
	}
	writeJSON(w, status, errorBody{Kind: kind, Message: message})
}

// deployRequest is the body of POST /api/deploy: an upsert of one
// routing entry, per spec.md's `deploy(host, target, project, app,
// health_path, ssl)` contract.
type deployRequest struct {
	Host            string        `json:"host"`
	Target          string        `json:"target"`
	Project         string        `json:"project"`
	App             string        `json:"app"`
	HealthPath      string        `json:"health_path"`
	SSL             bool          `json:"ssl"`
	SSLRedirect     bool          `json:"ssl_redirect"`
	ForwardHeaders  bool          `json:"forward_headers"`
	ResponseTimeout time.Duration `json:"response_timeout"`
}

func (h *handler) postDeploy(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, KindConfig, "invalid request body: "+err.Error(), 0)
		return
	}
	if req.Host == "" || req.Target == "" || req.Project == "" || req.App == "" {
		writeError(w, KindConfig, "host, target, project, and app are required", 0)
		return
	}

	healthPath := req.HealthPath
	if healthPath == "" {
		healthPath = "/"
	}

	h.deps.Store.Put(statestore.RoutingEntry{
		Project:         req.Project,
		App:             req.App,
		Hostname:        req.Host,
		Target:          req.Target,
		HealthPath:      healthPath,
		SSL:             req.SSL,
		SSLRedirect:     req.SSLRedirect,
		ForwardHeaders:  req.ForwardHeaders,
		ResponseTimeout: req.ResponseTimeout,
	})

	if req.SSL && h.deps.Certs != nil {
		// The certificate record starts life CertPending ("queued,
		// never attempted") synchronously, so a GET /api/status issued
		// immediately after this call already sees the hostname tracked;
		// acquisition itself runs in the background, since the endpoint
		// only needs to guarantee the store has accepted the routing
		// change before returning, matching spec.md's "return only
		// after the store has accepted the change; persistence flush
		// is asynchronous".
		h.deps.Store.PutCertificate(statestore.Certificate{
			Hostname: req.Host,
			Status:   statestore.CertPending,
		})
		go func() {
			_ = h.deps.Certs.Obtain(req.Host)
		}()
	}

	w.WriteHeader(http.StatusOK)
}

func (h *handler) listHosts(w http.ResponseWriter, r *http.Request) {
	entries := h.deps.Store.All("")
	if entries == nil {
		entries = []statestore.RoutingEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type patchHostRequest struct {
	Target string `json:"target"`
}

func (h *handler) patchHost(w http.ResponseWriter, r *http.Request) {
	hostname := chi.URLParam(r, "host")

	var req patchHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, KindConfig, "invalid request body: "+err.Error(), 0)
		return
	}
	if req.Target == "" {
		writeError(w, KindConfig, "target is required", 0)
		return
	}

	if err := h.deps.Store.SwitchTargetByHostname(hostname, req.Target); err != nil {
		writeError(w, KindNotFound, err.Error(), 0)
		return
	}

	if h.deps.Router != nil {
		h.deps.Router.InvalidateHostname(hostname)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *handler) deleteHost(w http.ResponseWriter, r *http.Request) {
	hostname := chi.URLParam(r, "host")

	if err := h.deps.Store.RemoveByHostname(hostname); err != nil {
		writeError(w, KindNotFound, err.Error(), 0)
		return
	}

	if h.deps.Router != nil {
		h.deps.Router.InvalidateHostname(hostname)
	}

	w.WriteHeader(http.StatusOK)
}

type putHostHealthRequest struct {
	Healthy bool `json:"healthy"`
}

func (h *handler) putHostHealth(w http.ResponseWriter, r *http.Request) {
	hostname := chi.URLParam(r, "host")

	var req putHostHealthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, KindConfig, "invalid request body: "+err.Error(), 0)
		return
	}

	if err := h.deps.Store.SetHealthyByHostname(hostname, req.Healthy, time.Now()); err != nil {
		writeError(w, KindNotFound, err.Error(), 0)
		return
	}

	if h.deps.Router != nil {
		h.deps.Router.InvalidateHostname(hostname)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *handler) renewCert(w http.ResponseWriter, r *http.Request) {
	hostname := chi.URLParam(r, "host")

	if _, err := h.deps.Store.GetByHostname(hostname); err != nil {
		writeError(w, KindNotFound, "no routing entry for "+hostname, 0)
		return
	}

	if h.deps.Certs == nil {
		writeError(w, KindACME, "acme client not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.deps.Certs.Renew(hostname); err != nil {
		writeError(w, KindACME, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type putStagingRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *handler) putStaging(w http.ResponseWriter, r *http.Request) {
	var req putStagingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, KindConfig, "invalid request body: "+err.Error(), 0)
		return
	}

	h.deps.Store.SetStaging(req.Enabled)
	w.WriteHeader(http.StatusOK)
}

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	hostname := r.URL.Query().Get("host")

	if hostname != "" {
		cert, ok := h.deps.Store.Certificate(hostname)
		if !ok {
			writeError(w, KindNotFound, "no certificate tracked for "+hostname, 0)
			return
		}
		writeJSON(w, http.StatusOK, cert)
		return
	}

	certs := h.deps.Store.Certificates()
	if certs == nil {
		certs = []statestore.Certificate{}
	}
	writeJSON(w, http.StatusOK, certs)
}
