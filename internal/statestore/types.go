// Package statestore implements the edge proxy's single source of
// truth for routing: a coarse-locked, in-memory map of
// project -> hostname -> routing entry, persisted to disk as a
// versioned JSON snapshot so the daemon can restart without losing
// what it was routing.
package statestore

import (
	"encoding/json"
	"time"
)

// Color is the blue-green deployment slot a container belongs to.
type Color string

const (
	Blue  Color = "blue"
	Green Color = "green"
)

// Other returns the opposite color, the target of the next deploy.
func (c Color) Other() Color {
	if c == Blue {
		return Green
	}
	return Blue
}

// CertificateStatus is the lifecycle state of a managed TLS certificate.
type CertificateStatus string

const (
	CertPending   CertificateStatus = "pending"   // queued, never attempted
	CertAcquiring CertificateStatus = "acquiring" // first acquisition in progress
	CertValid     CertificateStatus = "valid"
	CertRenewing  CertificateStatus = "renewing" // valid certificate, renewal attempt in progress
	CertExpired   CertificateStatus = "expired"
	CertFailed    CertificateStatus = "failed"
)

// Certificate tracks an ACME-issued certificate for one hostname.
type Certificate struct {
	Hostname    string            `json:"hostname"`
	Status      CertificateStatus `json:"status"`
	CertPath    string            `json:"cert_path,omitempty"`
	KeyPath     string            `json:"key_path,omitempty"`
	NotBefore   time.Time         `json:"not_before,omitempty"`
	NotAfter    time.Time         `json:"not_after,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
	LastAttempt time.Time         `json:"last_attempt,omitempty"`
}

// RoutingEntry describes where traffic for one hostname, within one
// project, should currently be sent.
type RoutingEntry struct {
	Project  string `json:"project"`
	App      string `json:"app"`
	Hostname string `json:"hostname"`

	// ActiveColor is the color currently holding the project-scoped
	// alias (<project>-<app>) and therefore receiving live traffic.
	ActiveColor Color `json:"active_color"`

	// Target is the dial address (host:port or container-name:port)
	// the proxy's reverse-proxy transport connects to. SwitchColor
	// updates it together with ActiveColor; SwitchTargetByHostname
	// changes it alone.
	Target string `json:"target"`

	// HealthPath is appended to the target when the Health Checker
	// probes this entry. Defaults to "/".
	HealthPath string `json:"health_path"`

	Healthy         bool      `json:"healthy"`
	LastHealthCheck time.Time `json:"last_health_check,omitempty"`

	// SSL requests certificate acquisition for Hostname.
	SSL bool `json:"ssl"`

	// SSLRedirect, when true, makes the HTTP listener answer with a 301
	// to the HTTPS equivalent instead of proxying the request directly.
	SSLRedirect bool `json:"ssl_redirect,omitempty"`

	// ForwardHeaders, when true, makes the router set X-Real-IP,
	// X-Forwarded-For, X-Forwarded-Proto and X-Forwarded-Host on the
	// upstream request.
	ForwardHeaders bool `json:"forward_headers,omitempty"`

	// ResponseTimeout bounds how long the reverse proxy transport waits
	// for this entry's upstream to answer. Zero means the router's
	// default applies.
	ResponseTimeout time.Duration `json:"response_timeout,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// key returns the composite key this entry is stored under.
func (e RoutingEntry) key() entryKey {
	return entryKey{project: e.Project, hostname: e.Hostname}
}

type entryKey struct {
	project  string
	hostname string
}

// snapshot is the on-disk, versioned representation. Field Extra
// preserves any JSON keys a future schema version might add, via the
// custom (Un)MarshalJSON below, so an older binary round-trips a
// snapshot written by a newer one without silently dropping fields it
// doesn't know about yet.
type snapshot struct {
	Version      int
	Entries      []RoutingEntry
	Certificates []Certificate
	ACME         ACMEState
	Extra        map[string]interface{}
}

const currentSnapshotVersion = 1

// snapshotKnownFields mirrors snapshot's known keys, used by
// MarshalJSON/UnmarshalJSON to split the known fields from whatever
// else is present in the document.
type snapshotKnownFields struct {
	Version      int            `json:"version"`
	Entries      []RoutingEntry `json:"entries"`
	Certificates []Certificate  `json:"certificates"`
	ACME         ACMEState      `json:"acme"`
}

// MarshalJSON writes the known fields alongside any entries in Extra,
// so unknown keys read from a snapshot (say, one written by a later
// binary version) are carried forward on the next write instead of
// being dropped.
func (s snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Extra)+4)
	for k, v := range s.Extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = raw
	}

	knownBytes, err := json.Marshal(snapshotKnownFields{
		Version:      s.Version,
		Entries:      s.Entries,
		Certificates: s.Certificates,
		ACME:         s.ACME,
	})
	if err != nil {
		return nil, err
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(knownBytes, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		out[k] = v
	}

	return json.Marshal(out)
}

// UnmarshalJSON populates the known fields and stashes every other
// top-level key into Extra so it survives the next MarshalJSON.
func (s *snapshot) UnmarshalJSON(data []byte) error {
	var known snapshotKnownFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	s.Version = known.Version
	s.Entries = known.Entries
	s.Certificates = known.Certificates
	s.ACME = known.ACME

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "version")
	delete(raw, "entries")
	delete(raw, "certificates")
	delete(raw, "acme")

	s.Extra = make(map[string]interface{}, len(raw))
	for k, v := range raw {
		var val interface{}
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		s.Extra[k] = val
	}
	return nil
}

// ACMEState is the State Store's copy of the operator-controlled ACME
// settings: the staging/production toggle and registration email.
// Directory URL is derived from Staging by the ACME client itself.
type ACMEState struct {
	Staging bool   `json:"staging"`
	Email   string `json:"email,omitempty"`
}
