package acme

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestClient() *Client {
	return &Client{budget: make(map[string][]time.Time)}
}

func TestCheckBudgetAllowsUpToLimit(t *testing.T) {
	c := newTestClient()
	for i := 0; i < maxIssuesPerHour; i++ {
		if err := c.checkBudget("example.com"); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i, err)
		}
		c.recordIssuance("example.com")
	}

	if err := c.checkBudget("example.com"); err != ErrRateLimited {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestCheckBudgetPrunesOldEntries(t *testing.T) {
	c := newTestClient()
	old := time.Now().Add(-2 * time.Hour)
	for i := 0; i < maxIssuesPerHour; i++ {
		c.budget["example.com"] = append(c.budget["example.com"], old)
	}

	if err := c.checkBudget("example.com"); err != nil {
		t.Fatalf("expected budget to have reset after pruning stale entries, got %v", err)
	}
}

func TestCheckBudgetIsolatedPerHostname(t *testing.T) {
	c := newTestClient()
	for i := 0; i < maxIssuesPerHour; i++ {
		c.recordIssuance("a.example.com")
	}

	if err := c.checkBudget("b.example.com"); err != nil {
		t.Fatalf("expected a different hostname to have its own budget, got %v", err)
	}
}

func TestWriteAtomicCreatesFileWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cert.pem")

	if err := writeAtomic(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestConfigDirectoryLabel(t *testing.T) {
	if got := (Config{Staging: true}).directoryLabel(); got != "staging" {
		t.Fatalf("expected staging label, got %q", got)
	}
	if got := (Config{}).directoryLabel(); got != "production" {
		t.Fatalf("expected production label, got %q", got)
	}
	if got := (Config{DirectoryURL: "https://example.test/directory"}).directoryLabel(); got != "custom" {
		t.Fatalf("expected custom label, got %q", got)
	}
}
