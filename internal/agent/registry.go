package agent

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid agent catalog")

// Registry is a fixed, ordered catalog of agents. It is never mutated after construction,
// so reads need no locking.
type Registry struct {
	agents []Agent
	byID   map[int]int
}

func NewRegistry(agents []Agent) (*Registry, error) {
	r := &Registry{
		agents: make([]Agent, 0, len(agents)),
		byID:   make(map[int]int, len(agents)),
	}
	for _, a := range agents {
		if a.ID <= 0 {
			return nil, fmt.Errorf("%w: agent id must be positive, got %d", ErrInvalidCatalog, a.ID)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate agent id %d", ErrInvalidCatalog, a.ID)
		}
		a.Endpoint = strings.TrimSpace(a.Endpoint)
		if a.Endpoint == "" {
			return nil, fmt.Errorf("%w: agent %d has no endpoint", ErrInvalidCatalog, a.ID)
		}
		if a.Name == "" {
			a.Name = FallbackName(a.ID)
		}
		if a.Icon == "" {
			a.Icon = FallbackIcon
		}
		r.byID[a.ID] = len(r.agents)
		r.agents = append(r.agents, a)
	}
	if len(r.agents) == 0 {
		return nil, fmt.Errorf("%w: no agents", ErrInvalidCatalog)
	}
	return r, nil
}

type catalogFile struct {
	Agents []Agent `yaml:"agents"`
}

// LoadCatalog reads agents from a YAML file of the form:
//
//	agents:
//	  - id: 1
//	    name: General
//	    endpoint: https://hooks.example.com/webhook/agent1
func LoadCatalog(path string) ([]Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agents file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing agents file: %w", err)
	}
	return f.Agents, nil
}

// List returns the agents in catalog order.
func (r *Registry) List() []Agent {
	return append([]Agent(nil), r.agents...)
}

func (r *Registry) Get(id int) (Agent, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Agent{}, false
	}
	return r.agents[i], true
}

func (r *Registry) IDs() []int {
	out := make([]int, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a.ID)
	}
	return out
}

// DisplayName tolerates ids that are no longer in the catalog (stale history).
func (r *Registry) DisplayName(id int) string {
	if a, ok := r.Get(id); ok {
		return a.Name
	}
	return FallbackName(id)
}

func (r *Registry) Icon(id int) string {
	if a, ok := r.Get(id); ok {
		return a.Icon
	}
	return FallbackIcon
}
