package deploy

import (
	"errors"
	"testing"
)

func TestTargetHostsFallsBackToProjectHosts(t *testing.T) {
	got := targetHosts(nil, []string{"host-a", "host-b"}, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 hosts, got %v", got)
	}
}

func TestTargetHostsPrefersAppHosts(t *testing.T) {
	got := targetHosts([]string{"host-c"}, []string{"host-a", "host-b"}, nil)
	if len(got) != 1 || got[0] != "host-c" {
		t.Fatalf("expected app-scoped hosts to win, got %v", got)
	}
}

func TestTargetHostsAppliesFilter(t *testing.T) {
	got := targetHosts(nil, []string{"host-a", "host-b", "host-c"}, []string{"host-b"})
	if len(got) != 1 || got[0] != "host-b" {
		t.Fatalf("expected filter to narrow to host-b, got %v", got)
	}
}

func TestResultFailedReportsAnyError(t *testing.T) {
	r := &Result{Hosts: []HostResult{
		{Host: "host-a", Name: "web"},
		{Host: "host-b", Name: "web", Err: errors.New("boom")},
	}}
	if !r.Failed() {
		t.Fatal("expected Failed to be true when any host errored")
	}
}

func TestResultFailedFalseWhenClean(t *testing.T) {
	r := &Result{Hosts: []HostResult{
		{Host: "host-a", Name: "web"},
		{Host: "host-b", Name: "web", Skipped: true},
	}}
	if r.Failed() {
		t.Fatal("expected Failed to be false when no host errored")
	}
}

func TestResolveReleaseReturnsNonEmptyString(t *testing.T) {
	release := resolveRelease()
	if release == "" {
		t.Fatal("expected resolveRelease to always return a non-empty identifier")
	}
}
