package deploy

import "testing"

func TestFingerprintStableForIdenticalInput(t *testing.T) {
	d := deployable{
		imageOrBuildID: "acme/web:v1",
		envPlain:       map[string]string{"FOO": "bar"},
		ports:          []string{"80:8080"},
		healthPath:     "/up",
		replicas:       2,
	}
	if fingerprint(d) != fingerprint(d) {
		t.Fatal("expected fingerprint to be deterministic for identical input")
	}
}

func TestFingerprintIgnoresEnvOrder(t *testing.T) {
	a := deployable{
		imageOrBuildID: "acme/web:v1",
		envPlain:       map[string]string{"FOO": "bar", "BAZ": "qux"},
	}
	b := deployable{
		imageOrBuildID: "acme/web:v1",
		envPlain:       map[string]string{"BAZ": "qux", "FOO": "bar"},
	}
	if fingerprint(a) != fingerprint(b) {
		t.Fatal("expected fingerprint to be insensitive to map iteration order")
	}
}

func TestFingerprintChangesWithImage(t *testing.T) {
	a := deployable{imageOrBuildID: "acme/web:v1"}
	b := deployable{imageOrBuildID: "acme/web:v2"}
	if fingerprint(a) == fingerprint(b) {
		t.Fatal("expected fingerprint to change when the image reference changes")
	}
}

func TestFingerprintChangesWithReplicas(t *testing.T) {
	a := deployable{imageOrBuildID: "acme/web:v1", replicas: 1}
	b := deployable{imageOrBuildID: "acme/web:v1", replicas: 2}
	if fingerprint(a) == fingerprint(b) {
		t.Fatal("expected fingerprint to change when replica count changes")
	}
}

func TestFingerprintChangesWithProxySpec(t *testing.T) {
	a := deployable{imageOrBuildID: "acme/web:v1", proxy: ProxySpec{Hostname: "acme.example.com", Port: 8080}}
	b := deployable{imageOrBuildID: "acme/web:v1", proxy: ProxySpec{Hostname: "acme.example.com", Port: 9090}}
	if fingerprint(a) == fingerprint(b) {
		t.Fatal("expected fingerprint to change when the proxy port changes")
	}
}

func TestAppDeployableDefaultsHealthPathAndReplicas(t *testing.T) {
	d := appDeployable(AppSpec{Name: "web"}, "acme/web:v1")
	if d.healthPath != "/up" {
		t.Fatalf("expected default health path /up, got %q", d.healthPath)
	}
	if d.replicas != 1 {
		t.Fatalf("expected default replicas 1, got %d", d.replicas)
	}
}
