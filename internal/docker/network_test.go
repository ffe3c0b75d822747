package docker

import (
	"reflect"
	"strings"
	"testing"
)

func TestNetworkManager_New(t *testing.T) {
	m := NewNetworkManager(&Client{})
	if m == nil {
		t.Fatal("expected non-nil NetworkManager")
	}
	if m.client == nil {
		t.Fatal("expected client to be set")
	}
}

func TestConnectWithAliasesArgs_Basic(t *testing.T) {
	args := connectWithAliasesArgs("ridge-net", "demo-web-blue", []string{"demo-web", "web"})

	want := []string{"network", "connect", "--alias", "demo-web", "--alias", "web", "ridge-net", "demo-web-blue"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("want %v got %v", want, args)
	}
}

func TestConnectWithAliasesArgs_SingleAlias(t *testing.T) {
	args := connectWithAliasesArgs("ridge-net", "demo-web-blue", []string{"demo-web"})

	cmd := strings.Join(args, " ")
	if !strings.HasPrefix(cmd, "network connect --alias demo-web") {
		t.Errorf("expected single alias flag up front, got: %s", cmd)
	}
	if !strings.HasSuffix(cmd, "ridge-net demo-web-blue") {
		t.Errorf("expected network then container last, got: %s", cmd)
	}
}

func TestConnectWithAliasesArgs_NoAliases(t *testing.T) {
	args := connectWithAliasesArgs("ridge-net", "demo-web-blue", nil)

	want := []string{"network", "connect", "ridge-net", "demo-web-blue"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("want %v got %v", want, args)
	}
}

func TestConnectWithAliasesArgs_AliasOrderPreserved(t *testing.T) {
	// The --alias flags must reach docker in exactly the order the
	// caller passed the aliases in.
	args := connectWithAliasesArgs("ridge-net", "demo-web-green", []string{"demo-web", "web"})

	firstAlias, secondAlias := -1, -1
	for i, a := range args {
		if a != "--alias" {
			continue
		}
		if firstAlias == -1 {
			firstAlias = i + 1
		} else {
			secondAlias = i + 1
		}
	}
	if firstAlias == -1 || secondAlias == -1 {
		t.Fatalf("expected two --alias flags, got %v", args)
	}
	if args[firstAlias] != "demo-web" || args[secondAlias] != "web" {
		t.Fatalf("expected project-scoped alias before app-local alias, got %v", args)
	}
}
