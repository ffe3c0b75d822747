package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// minFlushInterval throttles disk writes: a burst of routing changes
// (a deploy touching a dozen hostnames) collapses into one flush rather
// than one fsync per Put.
const minFlushInterval = 60 * time.Second

// persister owns the snapshot file and the dirty/throttle bookkeeping
// for one Store. It never blocks callers of Put/Delete/etc.; markDirty
// just flips a flag and lets the background ticker (or an explicit
// Flush) do the actual write-temp-then-rename.
type persister struct {
	path  string
	store *Store

	dirty atomic.Bool

	mu       sync.Mutex
	lastFlush time.Time
	stop      chan struct{}
}

func newPersister(path string, store *Store) *persister {
	return &persister{path: path, store: store, stop: make(chan struct{})}
}

func (p *persister) markDirty() {
	p.dirty.Store(true)
}

// Load reads an existing snapshot file, if any, and hydrates the
// store. A missing file is not an error: a fresh daemon starts empty.
func (s *Store) Load() error {
	if s.persist.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.persist.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", s.persist.path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot %s: %w", s.persist.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range snap.Entries {
		s.entries[e.key()] = e
	}
	for _, c := range snap.Certificates {
		s.certs[c.Hostname] = c
	}
	s.acme = snap.ACME
	return nil
}

// Flush writes the current state to disk unconditionally, via a
// temp-file-then-rename so a crash mid-write never corrupts the
// snapshot a restart would read.
func (s *Store) Flush() error {
	if s.persist.path == "" {
		return nil
	}

	s.mu.RLock()
	snap := snapshot{Version: currentSnapshotVersion, ACME: s.acme}
	for _, e := range s.entries {
		snap.Entries = append(snap.Entries, e)
	}
	for _, c := range s.certs {
		snap.Certificates = append(snap.Certificates, c)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	dir := filepath.Dir(s.persist.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.persist.path); err != nil {
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}

	s.persist.mu.Lock()
	s.persist.lastFlush = time.Now()
	s.persist.mu.Unlock()
	s.persist.dirty.Store(false)

	return nil
}

// StartAutoPersist begins a background loop that flushes whenever the
// store is dirty and at least minFlushInterval has passed since the
// last flush. Call Stop to end it (normally deferred from main).
func (s *Store) StartAutoPersist() {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-s.persist.stop:
				return
			case <-ticker.C:
				if !s.persist.dirty.Load() {
					continue
				}
				s.persist.mu.Lock()
				due := time.Since(s.persist.lastFlush) >= minFlushInterval
				s.persist.mu.Unlock()
				if due {
					_ = s.Flush()
				}
			}
		}
	}()
}

// Stop ends the auto-persist loop and performs a final flush so
// in-flight changes aren't lost on shutdown.
func (s *Store) Stop() error {
	close(s.persist.stop)
	return s.Flush()
}
