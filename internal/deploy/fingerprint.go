package deploy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ridgehq/ridge/internal/config"
)

// deployable is the subset of AppSpec/ServiceSpec the fingerprint is
// computed over: spec.md 4.G's "Fingerprint-based skip" list exactly
// (image-or-build-context id, sorted env plain, sorted secret *values*,
// ports, volumes, proxy spec, health spec, replicas).
type deployable struct {
	imageOrBuildID string
	envPlain       map[string]string
	envSecretKeys  []string
	ports          []string
	volumes        []string
	proxy          ProxySpec
	healthPath     string
	replicas       int
}

// fingerprint computes a deterministic hash over d, used to detect that
// a deploy would be a no-op (spec.md Testable Property 7, "Idempotent
// deploy"). Secret values are resolved and hashed, never the bare keys,
// so rotating a secret's value (without touching the spec) still forces
// a redeploy.
func fingerprint(d deployable) string {
	h := sha256.New()

	fmt.Fprintf(h, "image=%s\n", d.imageOrBuildID)

	plainKeys := make([]string, 0, len(d.envPlain))
	for k := range d.envPlain {
		plainKeys = append(plainKeys, k)
	}
	sort.Strings(plainKeys)
	for _, k := range plainKeys {
		fmt.Fprintf(h, "env=%s=%s\n", k, d.envPlain[k])
	}

	secretKeys := append([]string(nil), d.envSecretKeys...)
	sort.Strings(secretKeys)
	for _, k := range secretKeys {
		fmt.Fprintf(h, "secret=%s=%s\n", k, config.GetSecretOrEnv(k))
	}

	ports := append([]string(nil), d.ports...)
	sort.Strings(ports)
	fmt.Fprintf(h, "ports=%s\n", strings.Join(ports, ","))

	volumes := append([]string(nil), d.volumes...)
	sort.Strings(volumes)
	fmt.Fprintf(h, "volumes=%s\n", strings.Join(volumes, ","))

	fmt.Fprintf(h, "proxy=%s|%d|%t|%t|%t|%s\n",
		d.proxy.Hostname, d.proxy.Port, d.proxy.SSL, d.proxy.SSLRedirect,
		d.proxy.ForwardHeaders, d.proxy.ResponseTimeout)

	fmt.Fprintf(h, "health=%s\n", d.healthPath)
	fmt.Fprintf(h, "replicas=%d\n", d.replicas)

	return hex.EncodeToString(h.Sum(nil))
}

// fingerprintLabel is the container label the coordinator stamps a
// fingerprint into so the next deploy can compare against it without a
// side file.
const fingerprintLabel = "ridge.fingerprint"

func appDeployable(app AppSpec, imageRef string) deployable {
	return deployable{
		imageOrBuildID: imageRef,
		envPlain:       app.Env.Plain,
		envSecretKeys:  app.Env.Secret,
		proxy:          app.Proxy,
		healthPath:     effectiveHealthPath(app.HealthPath),
		replicas:       effectiveReplicas(app.Replicas),
	}
}

func serviceDeployable(svc ServiceSpec) deployable {
	return deployable{
		imageOrBuildID: svc.Image,
		envPlain:       svc.Env.Plain,
		envSecretKeys:  svc.Env.Secret,
		ports:          svc.Ports,
		volumes:        svc.Volumes,
		proxy:          svc.Proxy,
		healthPath:     effectiveHealthPath(svc.HealthPath),
		replicas:       effectiveReplicas(svc.Replicas),
	}
}
