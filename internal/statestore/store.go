package statestore

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup finds no routing entry for the
// given project/hostname pair.
var ErrNotFound = fmt.Errorf("statestore: not found")

// Store is the coarse-locked routing table. All reads return copies;
// callers never get a reference into internal state, matching the
// single-lock-and-copy-out discipline the spec requires to keep the
// proxy's hot path (a read-locked lookup by hostname, which scans the
// entries) lock-contention-free against the much rarer writes from the
// deployment coordinator and health checker.
type Store struct {
	mu      sync.RWMutex
	entries map[entryKey]RoutingEntry
	certs   map[string]Certificate
	acme    ACMEState

	persist *persister
}

// New creates an empty store. Call Load to hydrate from a snapshot
// file, or StartAutoPersist to begin periodic flushing.
func New(snapshotPath string) *Store {
	s := &Store{
		entries: make(map[entryKey]RoutingEntry),
		certs:   make(map[string]Certificate),
	}
	s.persist = newPersister(snapshotPath, s)
	return s
}

// NewReleaseID produces a fresh random (UUIDv4) identifier for a
// deployment release.
func NewReleaseID() string {
	return uuid.NewString()
}

// Put inserts or replaces the routing entry for project/hostname,
// stamping UpdatedAt, and marks the store dirty for the next flush.
func (s *Store) Put(entry RoutingEntry) {
	entry.UpdatedAt = time.Now()

	s.mu.Lock()
	s.entries[entry.key()] = entry
	s.mu.Unlock()

	s.persist.markDirty()
}

// Get returns a copy of the routing entry for project/hostname.
func (s *Store) Get(project, hostname string) (RoutingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryKey{project: project, hostname: hostname}]
	if !ok {
		return RoutingEntry{}, ErrNotFound
	}
	return e, nil
}

// GetByHostname looks up a routing entry across all projects by
// hostname alone, which is what the router's hot path needs: a single
// incoming Host header without any project context.
func (s *Store) GetByHostname(hostname string) (RoutingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.Hostname == hostname {
			return e, nil
		}
	}
	return RoutingEntry{}, ErrNotFound
}

// Delete removes the routing entry for project/hostname.
func (s *Store) Delete(project, hostname string) {
	s.mu.Lock()
	delete(s.entries, entryKey{project: project, hostname: hostname})
	s.mu.Unlock()

	s.persist.markDirty()
}

// RemoveByHostname deletes whichever entry and certificate record
// match hostname, regardless of project. The Management API's
// DELETE /api/hosts/:host only ever has a hostname to go on.
func (s *Store) RemoveByHostname(hostname string) error {
	s.mu.Lock()
	var key entryKey
	found := false
	for k, e := range s.entries {
		if e.Hostname == hostname {
			key, found = k, true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.entries, key)
	delete(s.certs, hostname)
	s.mu.Unlock()

	s.persist.markDirty()
	return nil
}

// All returns copies of every routing entry, optionally filtered to a
// single hostname.
func (s *Store) All(hostname string) []RoutingEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RoutingEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if hostname != "" && e.Hostname != hostname {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SetHealthy updates the health fields for a hostname in place without
// disturbing anything else about the routing entry.
func (s *Store) SetHealthy(project, hostname string, healthy bool, at time.Time) error {
	s.mu.Lock()
	key := entryKey{project: project, hostname: hostname}
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	e.Healthy = healthy
	e.LastHealthCheck = at
	s.entries[key] = e
	s.mu.Unlock()

	s.persist.markDirty()
	return nil
}

// SetHealthyByHostname is SetHealthy without requiring the caller to
// know which project a hostname belongs to, used by the Management
// API's PUT /api/hosts/:host/health endpoint.
func (s *Store) SetHealthyByHostname(hostname string, healthy bool, at time.Time) error {
	s.mu.Lock()
	var key entryKey
	found := false
	for k, e := range s.entries {
		if e.Hostname == hostname {
			key, found = k, true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrNotFound
	}
	e := s.entries[key]
	e.Healthy = healthy
	e.LastHealthCheck = at
	s.entries[key] = e
	s.mu.Unlock()

	s.persist.markDirty()
	return nil
}

// SwitchTargetByHostname performs the atomic traffic switch the
// Management API's PATCH /api/hosts/:host exposes: only target
// changes, nothing else about the entry is touched.
func (s *Store) SwitchTargetByHostname(hostname, target string) error {
	s.mu.Lock()
	var key entryKey
	found := false
	for k, e := range s.entries {
		if e.Hostname == hostname {
			key, found = k, true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ErrNotFound
	}
	e := s.entries[key]
	e.Target = target
	e.UpdatedAt = time.Now()
	s.entries[key] = e
	s.mu.Unlock()

	s.persist.markDirty()
	return nil
}

// ACME returns a copy of the operator-controlled ACME settings.
func (s *Store) ACME() ACMEState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acme
}

// SetStaging toggles the ACME staging/production directory. Per
// spec, the change is effective starting with the next ACME
// operation, not retroactively for certificates already issued.
func (s *Store) SetStaging(staging bool) {
	s.mu.Lock()
	s.acme.Staging = staging
	s.mu.Unlock()

	s.persist.markDirty()
}

// SwitchColor retargets a hostname's active color and dial target,
// the operation backing an atomic blue-green traffic switch at the
// State Store layer (the Docker-level alias move happens separately
// via the host executor; this call is what the router's cache sees).
func (s *Store) SwitchColor(project, hostname string, color Color, target string) error {
	s.mu.Lock()
	key := entryKey{project: project, hostname: hostname}
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	e.ActiveColor = color
	e.Target = target
	e.UpdatedAt = time.Now()
	s.entries[key] = e
	s.mu.Unlock()

	s.persist.markDirty()
	return nil
}

// PutCertificate records the state of one hostname's managed
// certificate.
func (s *Store) PutCertificate(cert Certificate) {
	s.mu.Lock()
	s.certs[cert.Hostname] = cert
	s.mu.Unlock()

	s.persist.markDirty()
}

// Certificate returns a copy of the certificate record for hostname.
func (s *Store) Certificate(hostname string) (Certificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.certs[hostname]
	return c, ok
}

// Certificates returns copies of every tracked certificate, used by the
// renewal scanner to find candidates nearing expiry.
func (s *Store) Certificates() []Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Certificate, 0, len(s.certs))
	for _, c := range s.certs {
		out = append(out, c)
	}
	return out
}
