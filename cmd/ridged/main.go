// Command ridged is the edge proxy and ACME daemon: it terminates HTTP
// and HTTPS traffic, issues and renews Let's Encrypt certificates over
// HTTP-01, health-checks routed backends, and exposes the loopback-only
// Management API the deployment coordinator drives.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ridgehq/ridge/internal/acme"
	"github.com/ridgehq/ridge/internal/api"
	"github.com/ridgehq/ridge/internal/challenge"
	"github.com/ridgehq/ridge/internal/config"
	"github.com/ridgehq/ridge/internal/health"
	"github.com/ridgehq/ridge/internal/proxy"
	"github.com/ridgehq/ridge/internal/rlog"
	"github.com/ridgehq/ridge/internal/statestore"
	"github.com/ridgehq/ridge/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ridged:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/ridge/ridged.yaml", "path to the daemon config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ridged %s (commit %s, built %s)\n", version.Version, version.Commit, version.BuildDate)
		return nil
	}

	log := rlog.New(os.Stderr, *debug)
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store := statestore.New(filepath.Join(cfg.StateDir, "state.json"))
	if err := store.Load(); err != nil {
		return fmt.Errorf("loading state snapshot: %w", err)
	}
	store.StartAutoPersist()

	responder := challenge.New(log.Component("challenge"))

	certs, err := acme.New(acme.Config{
		Email:        cfg.ACME.Email,
		Staging:      cfg.ACME.Staging,
		DirectoryURL: cfg.ACME.DirectoryURL,
		StateDir:     cfg.StateDir,
	}, responder, store, log.Component("acme"))
	if err != nil {
		return fmt.Errorf("initializing acme client: %w", err)
	}

	router := proxy.New(store, responder, portOf(cfg.Listen.HTTPS), log.Component("proxy"))

	checker := health.New(store, health.Config{
		Interval:       cfg.Health.Interval,
		Timeout:        cfg.Health.Timeout,
		ConnectTimeout: cfg.Health.ConnectTimeout,
	}, router.InvalidateHostname, log.Component("health"))

	apiHandler := api.New(api.Dependencies{
		Store:  store,
		Certs:  certs,
		Router: router,
		Token:  cfg.API.Token,
		Log:    log.Component("api"),
	})

	httpServer := &http.Server{Addr: cfg.Listen.HTTP, Handler: router.HTTPHandler()}
	httpsServer := &http.Server{
		Addr:      cfg.Listen.HTTPS,
		Handler:   router.HTTPSHandler(),
		TLSConfig: router.TLSConfig(),
	}
	apiServer := &http.Server{Addr: cfg.API.Addr, Handler: apiHandler}

	stopHealth := make(chan struct{})
	go checker.Start(stopHealth)
	stopRenewal := certs.StartRenewalScanner()

	errCh := make(chan error, 3)
	go func() {
		log.Component("main").WithField("addr", cfg.Listen.HTTP).Info("http listener starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http listener: %w", err)
		}
	}()
	go func() {
		log.Component("main").WithField("addr", cfg.Listen.HTTPS).Info("https listener starting")
		if err := httpsServer.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("https listener: %w", err)
		}
	}()
	go func() {
		log.Component("main").WithField("addr", cfg.API.Addr).Info("management api listener starting")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("management api listener: %w", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Component("main").WithField("signal", s.String()).Info("shutting down")
	case err := <-errCh:
		log.Component("main").WithError(err).Error("listener failed, shutting down")
	}

	close(stopHealth)
	stopRenewal()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, srv := range []*http.Server{httpServer, httpsServer, apiServer} {
		_ = srv.Shutdown(ctx)
	}

	if err := store.Stop(); err != nil {
		log.Component("main").WithError(err).Warn("final state snapshot flush failed")
	}

	return nil
}

// portOf returns the bare port of a listen address (":443" gives
// "443"), the form proxy.New wants for building absolute redirect URLs.
func portOf(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return port
}
