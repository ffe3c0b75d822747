// Package health implements the edge proxy's Health Checker: a
// periodic HTTP probe against each routed hostname's active alias,
// updating the State Store so the Router can gate unhealthy traffic
// before it ever reaches a broken backend.
package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ridgehq/ridge/internal/statestore"
)

// Config tunes probe cadence and timeouts.
type Config struct {
	Interval       time.Duration
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		Interval:       30 * time.Second,
		Timeout:        5 * time.Second,
		ConnectTimeout: 3 * time.Second,
	}
}

// Checker runs the background probing loop.
type Checker struct {
	store  *statestore.Store
	cfg    Config
	log    *logrus.Entry
	client *http.Client

	// onTransition is called whenever a hostname's health changes,
	// letting the router invalidate its cached upstream immediately
	// instead of waiting out the cache TTL.
	onTransition func(hostname string)
}

// New builds a Checker. A zero Config takes the spec's documented
// defaults (30s interval, 5s timeout, 3s connect timeout).
func New(store *statestore.Store, cfg Config, onTransition func(string), log *logrus.Entry) *Checker {
	if cfg.Interval == 0 {
		cfg = defaultConfig()
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &Checker{
		store: store,
		cfg:   cfg,
		log:   log,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
		onTransition: onTransition,
	}
}

// Start runs the probing loop until stop is closed.
func (c *Checker) Start(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.probeAll()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.probeAll()
		}
	}
}

func (c *Checker) probeAll() {
	for _, entry := range c.store.All("") {
		go c.probeOne(entry)
	}
}

func (c *Checker) probeOne(entry statestore.RoutingEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	path := entry.HealthPath
	if path == "" {
		path = "/"
	}
	healthy := c.probe(ctx, entry.Target, path)
	now := time.Now()

	if err := c.store.SetHealthy(entry.Project, entry.Hostname, healthy, now); err != nil {
		if c.log != nil {
			c.log.WithField("hostname", entry.Hostname).WithError(err).Warn("failed to record health check result")
		}
		return
	}

	if healthy != entry.Healthy && c.onTransition != nil {
		c.onTransition(entry.Hostname)
	}

	if c.log != nil {
		c.log.WithField("hostname", entry.Hostname).WithField("healthy", healthy).Debug("health check complete")
	}
}

// probe issues a single GET against target and reports success for any
// response in [200, 300), matching spec.md's health-check success
// criterion.
func (c *Checker) probe(ctx context.Context, target, path string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+target+path, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
