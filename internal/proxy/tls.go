package proxy

import (
	"crypto/tls"
	"fmt"
	"os"
	"sync"

	"github.com/ridgehq/ridge/internal/statestore"
)

// certCache lazily loads and caches X509 keypairs by hostname, keyed to
// the cert file's mtime so a renewal written by the ACME client is
// picked up on the next handshake without restarting the listener.
type certCache struct {
	store *statestore.Store

	mu      sync.Mutex
	entries map[string]cachedCert
}

type cachedCert struct {
	cert  tls.Certificate
	mtime int64
}

func newCertCache(store *statestore.Store) *certCache {
	return &certCache{store: store, entries: make(map[string]cachedCert)}
}

// GetCertificate implements tls.Config.GetCertificate.
func (c *certCache) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	hostname := hello.ServerName
	if hostname == "" {
		return nil, fmt.Errorf("no SNI hostname presented")
	}

	record, ok := c.store.Certificate(hostname)
	if !ok || record.Status != statestore.CertValid {
		return nil, fmt.Errorf("no valid certificate for %s", hostname)
	}

	info, err := os.Stat(record.CertPath)
	if err != nil {
		return nil, fmt.Errorf("stat certificate for %s: %w", hostname, err)
	}
	mtime := info.ModTime().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.entries[hostname]; ok && cached.mtime == mtime {
		return &cached.cert, nil
	}

	cert, err := tls.LoadX509KeyPair(record.CertPath, record.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading certificate for %s: %w", hostname, err)
	}

	c.entries[hostname] = cachedCert{cert: cert, mtime: mtime}
	return &cert, nil
}

// serverTLSConfig builds the listener's TLS configuration: modern
// minimum version and an explicit, narrow cipher suite list rather
// than accepting the full Go default set.
func serverTLSConfig(store *statestore.Store) *tls.Config {
	cc := newCertCache(store)
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: cc.GetCertificate,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		},
	}
}
