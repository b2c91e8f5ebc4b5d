package agent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog_OrderAndEndpoints(t *testing.T) {
	reg, err := NewRegistry(DefaultCatalog("http://hooks.local"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	agents := reg.List()
	if len(agents) != 5 {
		t.Fatalf("expected 5 agents, got %d", len(agents))
	}
	for i, a := range agents {
		if a.ID != i+1 {
			t.Fatalf("agent %d out of order: id=%d", i, a.ID)
		}
	}
	a, ok := reg.Get(3)
	if !ok {
		t.Fatalf("agent 3 not found")
	}
	if a.Endpoint != "http://hooks.local/webhook/agent3" {
		t.Fatalf("unexpected endpoint: %q", a.Endpoint)
	}
}

func TestRegistry_UnknownIDFallsBack(t *testing.T) {
	reg, err := NewRegistry(DefaultCatalog("http://hooks.local"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if _, ok := reg.Get(42); ok {
		t.Fatalf("expected agent 42 to be unknown")
	}
	if got := reg.DisplayName(42); got != "Agent 42" {
		t.Fatalf("unexpected fallback name: %q", got)
	}
	if got := reg.Icon(42); got != FallbackIcon {
		t.Fatalf("unexpected fallback icon: %q", got)
	}
	if got := reg.DisplayName(2); got != "Technical" {
		t.Fatalf("unexpected name: %q", got)
	}
}

func TestNewRegistry_RejectsBadCatalogs(t *testing.T) {
	cases := map[string][]Agent{
		"empty":       nil,
		"zero id":     {{ID: 0, Endpoint: "http://x"}},
		"duplicate":   {{ID: 1, Endpoint: "http://x"}, {ID: 1, Endpoint: "http://y"}},
		"no endpoint": {{ID: 1, Endpoint: "  "}},
	}
	for name, agents := range cases {
		if _, err := NewRegistry(agents); !errors.Is(err, ErrInvalidCatalog) {
			t.Fatalf("%s: expected ErrInvalidCatalog, got %v", name, err)
		}
	}
}

func TestLoadCatalog_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	body := `agents:
  - id: 7
    name: Legal
    endpoint: https://hooks.example.com/legal
  - id: 3
    endpoint: https://hooks.example.com/three
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	agents, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reg, err := NewRegistry(agents)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ids := reg.IDs()
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 3 {
		t.Fatalf("file order not preserved: %v", ids)
	}
	a, _ := reg.Get(3)
	if a.Name != "Agent 3" || a.Icon != FallbackIcon {
		t.Fatalf("defaults not applied: %+v", a)
	}
}
