package deploy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ridgehq/ridge/internal/docker"
	"github.com/ridgehq/ridge/internal/ssh"
	"github.com/ridgehq/ridge/internal/statestore"
)

// buildConcurrency bounds parallel `docker build` invocations across
// apps (spec.md 4.G step 3: "Parallel across apps bounded by a small
// concurrency").
const buildConcurrency = 4

// hostConcurrency bounds parallel per-host deployment fan-out (spec.md
// 4.G step 4: "in parallel, bounded").
const hostConcurrency = 8

// healthPollInterval and healthDeadline implement spec.md 4.G step (e):
// "poll ... every 2s up to a deadline (default ~90s)".
const (
	healthPollInterval = 2 * time.Second
	healthDeadline     = 90 * time.Second
)

// drainGrace is the graceful timeout given to an old color's containers
// before they're removed (spec.md 4.G step (g)).
const drainGrace = 30 * time.Second

// Options tunes a single Deploy invocation; it is the coordinator's view
// of the CLI flags spec.md 6 names: "verbosity, services-only, explicit
// config path, force".
type Options struct {
	// Hosts restricts the deploy to this subset; empty deploys to every
	// host the project/app names.
	Hosts []string

	// ServicesOnly skips apps, deploying only services.
	ServicesOnly bool

	// Force bypasses the fingerprint-based skip, redeploying even when
	// nothing changed.
	Force bool
}

// HostResult reports the outcome of deploying one app/service to one
// host.
type HostResult struct {
	Host     string
	Name     string // app or service name
	Release  string
	Skipped  bool // fingerprint matched; nothing was done
	Err      error
}

// Result aggregates every HostResult from one Deploy call.
type Result struct {
	Release string
	Hosts   []HostResult
}

// Failed reports whether any host/app in the result failed, the signal
// the CLI uses to choose exit code 1 vs 0.
func (r *Result) Failed() bool {
	for _, h := range r.Hosts {
		if h.Err != nil {
			return true
		}
	}
	return false
}

// Coordinator orchestrates a release across hosts: build, transfer,
// create-new-color, health-check, switch, drain-old. It is Component G,
// grounded on the teacher's Deployer (internal/deploy/deployer.go) but
// retargeted from Caddy route registration to ridge's blue-green alias
// switch via the Management API.
type Coordinator struct {
	sshClient  *ssh.Client
	sshUser    string
	containers *docker.ContainerManager
	images     *docker.ImageManager
	networks   *docker.NetworkManager
	api        *apiClient
	build      localBuilder
	log        *logrus.Entry
}

// New builds a Coordinator. sshUser is the remote user the coordinator
// dials as (used only to pick the right per-user lockfile directory via
// internal/localstate) — the SSH client's own per-host auth is
// configured on sshClient.
func New(sshClient *ssh.Client, sshUser, apiToken string, log *logrus.Entry) *Coordinator {
	dockerClient := docker.NewClient(sshClient)
	return &Coordinator{
		sshClient:  sshClient,
		sshUser:    sshUser,
		containers: docker.NewContainerManager(dockerClient),
		images:     docker.NewImageManager(dockerClient),
		networks:   docker.NewNetworkManager(dockerClient),
		api:        newAPIClient(sshClient, apiToken),
		log:        log,
	}
}

// Deploy runs every stage of spec.md 4.G across every app and service in
// spec, honoring opts.
func (c *Coordinator) Deploy(ctx context.Context, spec *ProjectSpec, opts Options) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	release := resolveRelease()
	result := &Result{Release: release}
	var mu sync.Mutex
	record := func(r HostResult) {
		mu.Lock()
		result.Hosts = append(result.Hosts, r)
		mu.Unlock()
	}

	if c.log != nil {
		c.log.WithField("deployment_id", newDeploymentID()).WithField("release", release).Info("deployment started")
	}

	if !opts.ServicesOnly {
		images, err := c.buildAll(spec.Apps)
		if err != nil {
			return nil, err
		}

		for _, app := range spec.Apps {
			app := app
			imageRef := images[app.Name]
			hosts := targetHosts(app.Hosts, spec.Hosts, opts.Hosts)
			c.fanOutHosts(hosts, func(host string) {
				skipped, err := c.deployApp(ctx, release, spec.Name, app, imageRef, host, opts.Force)
				record(HostResult{Host: host, Name: app.Name, Release: release, Skipped: skipped, Err: err})
			})
		}
	}

	for _, svc := range spec.Services {
		svc := svc
		hosts := targetHosts(svc.Hosts, spec.Hosts, opts.Hosts)
		c.fanOutHosts(hosts, func(host string) {
			skipped, err := c.deployService(ctx, release, spec.Name, svc, host, opts.Force)
			record(HostResult{Host: host, Name: svc.Name, Release: release, Skipped: skipped, Err: err})
		})
	}

	return result, nil
}

// fanOutHosts runs fn for every host, bounded by hostConcurrency,
// waiting for all to finish (each host's chain of stages is otherwise
// sequential and independent of other hosts, per spec.md 5).
func (c *Coordinator) fanOutHosts(hosts []string, fn func(host string)) {
	sem := make(chan struct{}, hostConcurrency)
	var wg sync.WaitGroup
	for _, host := range hosts {
		host := host
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(host)
		}()
	}
	wg.Wait()
}

// buildAll invokes the external build collaborator once per app with
// a non-empty build context, bounded by buildConcurrency.
func (c *Coordinator) buildAll(apps []AppSpec) (map[string]string, error) {
	images := make(map[string]string, len(apps))
	var mu sync.Mutex
	sem := make(chan struct{}, buildConcurrency)
	var wg sync.WaitGroup
	var firstErr error

	release := resolveRelease()

	for _, app := range apps {
		app := app
		if app.Build.Context == "" {
			mu.Lock()
			images[app.Name] = app.Image
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			ref, err := c.build.Build(app.Name, release, app.Build)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			images[app.Name] = ref
		}()
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return images, nil
}

// deployApp runs spec.md 4.G steps (a)-(g) for one app on one host,
// returning (skipped, err).
func (c *Coordinator) deployApp(ctx context.Context, release, project string, app AppSpec, imageRef, host string, force bool) (bool, error) {
	lockFile := lockFileFor(c.sshUser, project, app.Name)

	var skipped bool
	var stageErr error

	err := c.sshClient.WithRemoteLock(host, lockFile, drainGrace, func() error {
		skipped, stageErr = c.deployAppLocked(ctx, release, project, app, imageRef, host, force)
		return stageErr
	})
	if err != nil {
		if stageErr != nil {
			return false, stageErr
		}
		return false, wrapErr(KindConflict, host, "acquire-lock", err)
	}
	return skipped, nil
}

func (c *Coordinator) deployAppLocked(ctx context.Context, release, project string, app AppSpec, imageRef, host string, force bool) (bool, error) {
	if err := c.ensureInfrastructure(host, project); err != nil {
		return false, err
	}

	active, hadActive, err := currentColor(c.containers, host, project, app.Name)
	if err != nil {
		return false, err
	}
	newColor := active
	if hadActive {
		newColor = active.Other()
	}

	fp := fingerprint(appDeployable(app, imageRef))
	if !force && hadActive {
		if matches, err := c.fingerprintMatches(host, project, app.Name, active, fp); err == nil && matches {
			return true, nil
		}
	}

	if err := c.transferImage(host, imageRef); err != nil {
		return false, err
	}

	replicas := effectiveReplicas(app.Replicas)
	healthPath := effectiveHealthPath(app.HealthPath)
	names, err := c.createColor(host, project, app.Name, newColor, replicas, release, fp, imageRef, app.Env, app.Proxy.Port)
	if err != nil {
		return false, err
	}

	if err := c.gateOnHealth(ctx, host, names, app.Proxy.Port, healthPath); err != nil {
		c.removeContainers(host, names)
		return false, err
	}

	target := fmt.Sprintf("%s:%d", projectAlias(project, app.Name), app.Proxy.Port)
	if err := c.switchTraffic(host, project, app.Name, app.Proxy, healthPath, target, hadActive); err != nil {
		c.removeContainers(host, names)
		return false, err
	}

	if hadActive {
		c.retireColor(host, project, app.Name, active)
	}

	return false, nil
}

// deployService runs the same pipeline as deployApp for a proxied
// service, or a stop-start replacement for a non-proxied one (spec.md
// 4.G: "Services without proxy specs: steps (d)-(g) are replaced by a
// stop-start replacement on the same container name").
func (c *Coordinator) deployService(ctx context.Context, release, project string, svc ServiceSpec, host string, force bool) (bool, error) {
	lockFile := lockFileFor(c.sshUser, project, svc.Name)

	var skipped bool
	var stageErr error
	err := c.sshClient.WithRemoteLock(host, lockFile, drainGrace, func() error {
		if err := c.ensureInfrastructure(host, project); err != nil {
			stageErr = err
			return err
		}
		if svc.HasProxy() {
			skipped, stageErr = c.deployProxiedService(ctx, release, project, svc, host, force)
		} else {
			skipped, stageErr = c.deployStopStartService(release, project, svc, host, force)
		}
		return stageErr
	})
	if err != nil {
		if stageErr != nil {
			return false, stageErr
		}
		return false, wrapErr(KindConflict, host, "acquire-lock", err)
	}
	return skipped, nil
}

func (c *Coordinator) deployProxiedService(ctx context.Context, release, project string, svc ServiceSpec, host string, force bool) (bool, error) {
	active, hadActive, err := currentColor(c.containers, host, project, svc.Name)
	if err != nil {
		return false, err
	}
	newColor := active
	if hadActive {
		newColor = active.Other()
	}

	fp := fingerprint(serviceDeployable(svc))
	if !force && hadActive {
		if matches, err := c.fingerprintMatches(host, project, svc.Name, active, fp); err == nil && matches {
			return true, nil
		}
	}

	if err := c.transferImage(host, svc.Image); err != nil {
		return false, err
	}

	replicas := effectiveReplicas(svc.Replicas)
	healthPath := effectiveHealthPath(svc.HealthPath)
	names, err := c.createColor(host, project, svc.Name, newColor, replicas, release, fp, svc.Image, svc.Env, svc.Proxy.Port)
	if err != nil {
		return false, err
	}

	if err := c.gateOnHealth(ctx, host, names, svc.Proxy.Port, healthPath); err != nil {
		c.removeContainers(host, names)
		return false, err
	}

	target := fmt.Sprintf("%s:%d", projectAlias(project, svc.Name), svc.Proxy.Port)
	if err := c.switchTraffic(host, project, svc.Name, svc.Proxy, healthPath, target, hadActive); err != nil {
		c.removeContainers(host, names)
		return false, err
	}

	if hadActive {
		c.retireColor(host, project, svc.Name, active)
	}

	return false, nil
}

// deployStopStartService replaces a non-proxied service's container
// in place: stop, remove, run, with no blue-green color and no
// Management API interaction since nothing routes to it by hostname.
func (c *Coordinator) deployStopStartService(release, project string, svc ServiceSpec, host string, force bool) (bool, error) {
	name := fmt.Sprintf("%s-%s", project, svc.Name)

	fp := fingerprint(serviceDeployable(svc))
	if !force {
		if exists, _ := c.containers.Exists(host, name); exists {
			if current, ok := c.currentFingerprint(host, name); ok && current == fp {
				return true, nil
			}
		}
	}

	if err := c.transferImage(host, svc.Image); err != nil {
		return false, err
	}

	if exists, _ := c.containers.Exists(host, name); exists {
		if err := c.containers.Stop(host, name, int(drainGrace.Seconds())); err != nil {
			return false, wrapErr(KindDocker, host, "stop-old", err)
		}
		if err := c.containers.Remove(host, name, true); err != nil {
			return false, wrapErr(KindDocker, host, "remove-old", err)
		}
	}

	cfg := &docker.ContainerConfig{
		Name:      name,
		Image:     svc.Image,
		Env:       svc.Env.Plain,
		SecretEnv: svc.Env.Secret,
		Ports:     svc.Ports,
		Volumes:   svc.Volumes,
		Network:   networkName(project),
		Labels:    map[string]string{"project": project, "app": svc.Name, fingerprintLabel: fp, "release": release},
		Restart:   "unless-stopped",
		Detach:    true,
	}
	if _, err := c.containers.Run(host, cfg); err != nil {
		return false, wrapErr(KindDocker, host, "run", err)
	}

	return false, nil
}

// transferImage streams the image to host via SSH stdin into `docker
// load`, skipping the transfer if the host already has the image
// (cheap idempotence on top of the fingerprint skip, since a retried
// deploy after a mid-deploy failure shouldn't re-push unchanged bytes).
func (c *Coordinator) transferImage(host, imageRef string) error {
	if exists, _ := c.images.Exists(host, imageRef); exists {
		return nil
	}

	tarPath, cleanup, err := c.build.Save(imageRef)
	if err != nil {
		// imageRef may simply be a registry reference never built
		// locally (an external image used by a service); fall back to
		// a remote pull instead of failing the deploy.
		if pullErr := c.images.Pull(host, imageRef); pullErr != nil {
			return wrapErr(KindDocker, host, "transfer-image", fmt.Errorf("%v (save failed: %w)", pullErr, err))
		}
		return nil
	}
	defer cleanup()

	f, err := os.Open(tarPath)
	if err != nil {
		return wrapErr(KindDocker, host, "transfer-image", err)
	}
	defer f.Close()

	if err := c.images.LoadFromStdin(host, f); err != nil {
		return wrapErr(KindDocker, host, "transfer-image", err)
	}
	return nil
}

// createColor creates replicas containers for newColor, connected to
// the project network with both the service-discovery and
// project-scoped aliases (spec.md 3: dual DNS aliases), labeled
// active=false until the switch (spec.md invariant 4).
func (c *Coordinator) createColor(host, project, app string, color statestore.Color, replicas int, release, fp, imageRef string, env EnvSpec, port int) ([]string, error) {
	net := networkName(project)
	aliases := aliasesFor(project, app)
	names := make([]string, 0, replicas)

	for i := 1; i <= replicas; i++ {
		name := containerName(project, app, color, i, replicas)
		labels := containerLabels(project, app, color, i, release, false)
		labels[fingerprintLabel] = fp

		cfg := &docker.ContainerConfig{
			Name:      name,
			Image:     imageRef,
			Env:       env.Plain,
			SecretEnv: env.Secret,
			Labels:    labels,
			Restart:   "unless-stopped",
			Detach:    true,
		}

		if _, err := c.containers.Run(host, cfg); err != nil {
			c.removeContainers(host, names)
			return nil, wrapErr(KindDocker, host, "create-color", err)
		}

		if err := c.networks.ConnectWithAliases(host, net, name, aliases); err != nil {
			c.removeContainers(host, append(names, name))
			return nil, wrapErr(KindDocker, host, "alias-color", err)
		}

		names = append(names, name)
	}

	_ = port
	return names, nil
}

// gateOnHealth polls every replica until healthy or healthDeadline
// elapses (spec.md 4.G step e), by running wget against
// http://localhost:<port><path> inside each replica's own container
// via docker exec.
func (c *Coordinator) gateOnHealth(ctx context.Context, host string, names []string, port int, path string) error {
	deadline := time.Now().Add(healthDeadline)

	for _, name := range names {
		for {
			select {
			case <-ctx.Done():
				return wrapErr(KindHealthCheck, host, "health-gate", ctx.Err())
			default:
			}

			cfg := docker.ExecConfig{
				Container: name,
				Command:   []string{"wget", "-q", "-O", "-", fmt.Sprintf("http://localhost:%d%s", port, path)},
			}
			result, err := c.containers.Exec(host, &cfg)
			if err == nil && result.ExitCode == 0 {
				break
			}

			if time.Now().After(deadline) {
				return wrapErr(KindHealthCheck, host, "health-gate",
					fmt.Errorf("%s did not become healthy within %s", name, healthDeadline))
			}
			time.Sleep(healthPollInterval)
		}
	}
	return nil
}

// switchTraffic performs spec.md 4.G step (f): the first deploy for a
// hostname upserts via POST /api/deploy; every subsequent deploy is an
// atomic PATCH switch.
func (c *Coordinator) switchTraffic(host, project, app string, proxy ProxySpec, healthPath, target string, hadActive bool) error {
	if proxy.Hostname == "" {
		return nil
	}
	if !hadActive {
		return c.api.Deploy(host, deployRequest{
			Host:            proxy.Hostname,
			Target:          target,
			Project:         project,
			App:             app,
			HealthPath:      healthPath,
			SSL:             proxy.SSL,
			SSLRedirect:     proxy.SSLRedirect,
			ForwardHeaders:  proxy.ForwardHeaders,
			ResponseTimeout: proxy.ResponseTimeout,
		})
	}
	return c.api.Switch(host, proxy.Hostname, target)
}

// retireColor is spec.md 4.G step (g): mark the old color inactive,
// send SIGTERM, wait the graceful timeout, then remove it. Failure here
// is logged, not propagated — the new color is already authoritative.
func (c *Coordinator) retireColor(host, project, app string, oldColor statestore.Color) {
	old, err := c.containers.List(host, true, map[string]string{
		"label": fmt.Sprintf("project=%s", project),
	})
	if err != nil {
		c.logWarn(host, "retire-old", err)
		return
	}

	for _, ctr := range old {
		if !labelMatches(ctr, "app", app) || !labelMatches(ctr, "color", string(oldColor)) {
			continue
		}
		if err := c.containers.Stop(host, ctr.Name, int(drainGrace.Seconds())); err != nil {
			c.logWarn(host, "retire-old", err)
			continue
		}
		if err := c.containers.Remove(host, ctr.Name, true); err != nil {
			c.logWarn(host, "retire-old", err)
		}
	}
}

func (c *Coordinator) removeContainers(host string, names []string) {
	for _, name := range names {
		_ = c.containers.Remove(host, name, true)
	}
}

// fingerprintMatches compares fp against the fingerprint label recorded
// on the active color's containers (spec.md 4.G "Fingerprint-based
// skip").
func (c *Coordinator) fingerprintMatches(host, project, app string, active statestore.Color, fp string) (bool, error) {
	running, err := c.containers.List(host, false, map[string]string{
		"label": fmt.Sprintf("project=%s", project),
	})
	if err != nil {
		return false, err
	}
	for _, ctr := range running {
		if labelMatches(ctr, "app", app) && labelMatches(ctr, "color", string(active)) {
			if v, ok := ctr.Labels[fingerprintLabel]; ok {
				return v == fp, nil
			}
		}
	}
	return false, nil
}

func (c *Coordinator) currentFingerprint(host, name string) (string, bool) {
	running, err := c.containers.List(host, false, nil)
	if err != nil {
		return "", false
	}
	for _, ctr := range running {
		if ctr.Name == name {
			v, ok := ctr.Labels[fingerprintLabel]
			return v, ok
		}
	}
	return "", false
}

func (c *Coordinator) logWarn(host, stage string, err error) {
	if c.log == nil {
		return
	}
	c.log.WithField("host", host).WithField("stage", stage).WithError(err).Warn("deployment step failed (non-fatal)")
}

// targetHosts resolves which hosts to deploy to: an explicit app/service
// Hosts list, else the project's Hosts, narrowed by an operator-supplied
// --host filter if any.
func targetHosts(appHosts, projectHosts, filter []string) []string {
	hosts := appHosts
	if len(hosts) == 0 {
		hosts = projectHosts
	}
	if len(filter) == 0 {
		return hosts
	}

	allowed := make(map[string]bool, len(filter))
	for _, h := range filter {
		allowed[h] = true
	}
	var out []string
	for _, h := range hosts {
		if allowed[h] {
			out = append(out, h)
		}
	}
	return out
}

// resolveRelease is spec.md 4.G step 1: the current source-control short
// hash if available, else a monotonically increasing timestamp.
func resolveRelease() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").CombinedOutput()
	if err == nil {
		if hash := strings.TrimSpace(string(out)); hash != "" {
			return hash
		}
	}
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}

// newDeploymentID is used to tag log lines for one Deploy invocation
// when source-control context isn't meaningful (e.g. correlating
// parallel per-host log output for a single CLI run).
func newDeploymentID() string {
	return uuid.NewString()
}
