// Package acme wraps go-acme/lego into the certificate lifecycle
// spec.md's ACME Client component needs: HTTP-01-only issuance,
// per-directory (staging vs production) account isolation, bounded
// retry with backoff, a per-hour issuance budget, and a background
// renewal scanner.
package acme

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
	"github.com/sirupsen/logrus"

	"github.com/ridgehq/ridge/internal/challenge"
	"github.com/ridgehq/ridge/internal/statestore"
)

// ErrRateLimited is returned when a hostname has already exhausted its
// issuance budget for the current hour.
var ErrRateLimited = fmt.Errorf("acme: issuance rate limit exceeded for this hour")

const (
	stepTimeout      = 30 * time.Second
	retryInterval    = 10 * time.Minute
	maxRetryAttempts = 144 // ~24h at 10-minute spacing
	renewalWindow    = 30 * 24 * time.Hour
	renewalInterval  = 12 * time.Hour
	maxIssuesPerHour = 5
)

// Config configures the client for one ACME directory.
type Config struct {
	Email        string
	Staging      bool
	DirectoryURL string // overrides Staging when set, used in tests
	StateDir     string
}

func (c Config) directoryURL() string {
	return c.directoryURLFor(c.Staging)
}

func (c Config) directoryLabel() string {
	return c.directoryLabelFor(c.Staging)
}

// directoryURLFor and directoryLabelFor are parameterized on an
// explicit staging flag rather than c.Staging so rebuild can target
// whichever directory the state store currently reports, independent
// of the value the daemon booted with.
func (c Config) directoryURLFor(staging bool) string {
	if c.DirectoryURL != "" {
		return c.DirectoryURL
	}
	if staging {
		return lego.LEDirectoryStaging
	}
	return lego.LEDirectoryProduction
}

func (c Config) directoryLabelFor(staging bool) string {
	if c.DirectoryURL != "" {
		return "custom"
	}
	if staging {
		return "staging"
	}
	return "production"
}

// Client issues and renews certificates via HTTP-01, serializing all
// ACME operations behind a single process-wide mutex: Let's Encrypt's
// HTTP-01 flow requires one hostname's validation to complete before
// the next starts publishing tokens, and the underlying lego client
// isn't meant to be driven concurrently for unrelated orders anyway.
type Client struct {
	cfg       Config
	store     *statestore.Store
	responder *challenge.Responder
	log       *logrus.Entry

	mu            sync.Mutex
	lego          *lego.Client
	activeStaging bool
	budget        map[string][]time.Time // hostname -> issuance timestamps in the last hour
}

// New builds a Client, registering (or reusing) an ACME account for
// the directory the state store currently has configured (falling
// back to cfg.Staging when store is nil, as in tests). The responder
// is wired in as the HTTP-01 provider so challenge publication never
// leaves this process.
func New(cfg Config, responder *challenge.Responder, store *statestore.Store, log *logrus.Entry) (*Client, error) {
	c := &Client{
		cfg:       cfg,
		store:     store,
		responder: responder,
		log:       log,
		budget:    make(map[string][]time.Time),
	}

	staging := cfg.Staging
	if store != nil {
		staging = store.ACME().Staging
	}
	if err := c.rebuild(staging); err != nil {
		return nil, err
	}
	return c, nil
}

// rebuild reconstructs the lego client against either the staging or
// production ACME directory, loading (or generating) that directory's
// distinct account key and registering a fresh account resource. This
// is the operation spec.md 4.B calls for when "the operator toggles
// staging: the next ACME operation rebuilds the ACME client against
// the new URL; the account key is distinct per directory."
func (c *Client) rebuild(staging bool) error {
	label := c.cfg.directoryLabelFor(staging)
	keyPath := accountKeyPath(c.cfg.StateDir, label)
	key, err := loadOrCreateAccountKey(keyPath)
	if err != nil {
		return err
	}

	user := &accountUser{email: c.cfg.Email, key: key}

	legoCfg := lego.NewConfig(user)
	legoCfg.CADirURL = c.cfg.directoryURLFor(staging)
	legoCfg.Certificate.KeyType = certificate.EC256

	legoClient, err := lego.NewClient(legoCfg)
	if err != nil {
		return fmt.Errorf("creating acme client: %w", err)
	}

	if err := legoClient.Challenge.SetHTTP01Provider(&responderProvider{responder: c.responder}); err != nil {
		return fmt.Errorf("registering http-01 provider: %w", err)
	}

	reg, err := legoClient.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return fmt.Errorf("registering acme account: %w", err)
	}
	user.registration = reg

	c.lego = legoClient
	c.activeStaging = staging
	if c.log != nil {
		c.log.WithField("directory", label).Info("acme client ready")
	}
	return nil
}

// ensureDirectory rebuilds the lego client whenever the operator's
// staging toggle no longer matches the directory the client was last
// built against. Called under c.mu from every acquisition so a
// set_staging(true) takes effect on the very next Obtain/Renew.
func (c *Client) ensureDirectory() error {
	staging := c.cfg.Staging
	if c.store != nil {
		staging = c.store.ACME().Staging
	}
	if c.lego != nil && staging == c.activeStaging {
		return nil
	}
	return c.rebuild(staging)
}

// checkBudget enforces the per-hostname issuance budget, pruning
// timestamps older than an hour before deciding.
func (c *Client) checkBudget(hostname string) error {
	now := time.Now()
	cutoff := now.Add(-time.Hour)

	kept := c.budget[hostname][:0]
	for _, t := range c.budget[hostname] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.budget[hostname] = kept

	if len(kept) >= maxIssuesPerHour {
		return ErrRateLimited
	}
	return nil
}

func (c *Client) recordIssuance(hostname string) {
	c.budget[hostname] = append(c.budget[hostname], time.Now())
}

// certPaths returns where a hostname's cert and key are written,
// matching spec.md's on-host persisted state layout.
func (c *Client) certPaths(hostname string) (certPath, keyPath string) {
	dir := filepath.Join(c.cfg.StateDir, "certs", hostname)
	return filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem")
}

// Obtain runs the full HTTP-01 order/validate/finalize flow for
// hostname and writes cert.pem/key.pem atomically, recording the
// result in the state store regardless of outcome. Used for a
// hostname's first acquisition; the certificate is marked
// CertAcquiring while the order is in flight.
func (c *Client) Obtain(hostname string) error {
	return c.run(hostname, statestore.CertAcquiring)
}

// Renew re-runs the same HTTP-01 flow as Obtain but marks the
// certificate CertRenewing while in flight instead of CertAcquiring,
// distinguishing a background or forced renewal from a first
// acquisition in the Management API's status wire shape (spec.md §3:
// "pending, acquiring, active, renewing, failed, expired"). Used by
// the renewal scanner and by the Management API's cert_renew(host).
func (c *Client) Renew(hostname string) error {
	return c.run(hostname, statestore.CertRenewing)
}

// run drives one HTTP-01 acquisition attempt, stamping inProgress
// (CertAcquiring or CertRenewing) on the certificate for the duration
// of the order and CertFailed/CertValid once it settles.
func (c *Client) run(hostname string, inProgress statestore.CertificateStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureDirectory(); err != nil {
		c.store.PutCertificate(statestore.Certificate{
			Hostname:    hostname,
			Status:      statestore.CertFailed,
			LastError:   err.Error(),
			LastAttempt: time.Now(),
		})
		return fmt.Errorf("preparing acme client for %s: %w", hostname, err)
	}

	if err := c.checkBudget(hostname); err != nil && !c.activeStaging {
		c.store.PutCertificate(statestore.Certificate{
			Hostname:    hostname,
			Status:      statestore.CertFailed,
			LastError:   err.Error(),
			LastAttempt: time.Now(),
		})
		return err
	}

	c.store.PutCertificate(statestore.Certificate{
		Hostname:    hostname,
		Status:      inProgress,
		LastAttempt: time.Now(),
	})

	done := make(chan obtainResult, 1)
	go func() {
		res, err := c.lego.Certificate.Obtain(certificate.ObtainRequest{
			Domains: []string{hostname},
			Bundle:  true,
		})
		done <- obtainResult{res: res, err: err}
	}()

	var result obtainResult
	select {
	case result = <-done:
	case <-time.After(stepTimeout):
		result.err = fmt.Errorf("timed out obtaining certificate for %s after %s", hostname, stepTimeout)
	}

	if result.err != nil {
		c.recordIssuance(hostname)
		c.store.PutCertificate(statestore.Certificate{
			Hostname:    hostname,
			Status:      statestore.CertFailed,
			LastError:   result.err.Error(),
			LastAttempt: time.Now(),
		})
		return fmt.Errorf("obtaining certificate for %s: %w", hostname, result.err)
	}

	certPath, keyPath := c.certPaths(hostname)
	if err := writeAtomic(certPath, result.res.Certificate, 0o644); err != nil {
		return err
	}
	if err := writeAtomic(keyPath, result.res.PrivateKey, 0o600); err != nil {
		return err
	}

	rec := statestore.Certificate{
		Hostname:    hostname,
		Status:      statestore.CertValid,
		CertPath:    certPath,
		KeyPath:     keyPath,
		LastAttempt: time.Now(),
	}
	if block, _ := pem.Decode(result.res.Certificate); block != nil {
		if leaf, err := x509.ParseCertificate(block.Bytes); err == nil {
			rec.NotBefore = leaf.NotBefore
			rec.NotAfter = leaf.NotAfter
		}
	}
	c.store.PutCertificate(rec)

	if c.log != nil {
		c.log.WithField("hostname", hostname).Info("issued certificate")
	}
	return nil
}

type obtainResult struct {
	res *certificate.Resource
	err error
}

// ObtainWithRetry drives Obtain with the documented backoff: up to
// maxRetryAttempts tries, retryInterval apart (about 24h of total
// patience before giving up and leaving the hostname in CertFailed).
func (c *Client) ObtainWithRetry(hostname string, stop <-chan struct{}) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		lastErr = c.Obtain(hostname)
		if lastErr == nil {
			return nil
		}
		if c.log != nil {
			c.log.WithFields(logrus.Fields{"hostname": hostname, "attempt": attempt}).
				WithError(lastErr).Warn("certificate issuance failed, will retry")
		}

		select {
		case <-stop:
			return lastErr
		case <-time.After(retryInterval):
		}
	}
	return fmt.Errorf("giving up on %s after %d attempts: %w", hostname, maxRetryAttempts, lastErr)
}

// writeAtomic writes data to path via a temp-file-then-rename, setting
// mode on the temp file before the rename so the final file never
// briefly has broader permissions than intended (spec.md §6: key files
// 0600, cert files 0644).
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
