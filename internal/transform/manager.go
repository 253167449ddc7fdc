package transform

import (
	"sync"

	"github.com/epochflow/engine/internal/registry"
)

// Factory constructs an executable Base from a validated Configuration. One
// factory is registered per transform type id (internal/builtins registers
// its own factories against a shared Manager at process start).
type Factory func(cfg *Configuration) (Base, error)

// Manager turns a compiled graph description into an ordered set of
// Configurations, then into the executable Base list the orchestrator
// consumes (spec §4.2).
type Manager struct {
	mu        sync.Mutex
	factories map[string]Factory
	configs   []*Configuration
	byID      map[string]int // configuration id -> index in configs
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		factories: make(map[string]Factory),
		byID:      make(map[string]int),
	}
}

// RegisterFactory associates a transform type id with the constructor that
// builds its executable Base.
func (m *Manager) RegisterFactory(typeID string, f Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[typeID] = f
}

// Insert idempotently appends cfg: if a configuration with the same id is
// already present, the existing pointer is returned instead of appending a
// duplicate (the orchestrator inserts every description through it, after
// its own duplicate-id check).
func (m *Manager) Insert(cfg *Configuration) *Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.byID[cfg.ID]; ok {
		return m.configs[idx]
	}
	m.byID[cfg.ID] = len(m.configs)
	m.configs = append(m.configs, cfg)
	return cfg
}

// Configurations returns the configurations inserted so far, in insertion
// order.
func (m *Manager) Configurations() []*Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Configuration, len(m.configs))
	copy(out, m.configs)
	return out
}

// BuildTransforms returns the executable transforms, one per configuration,
// in a valid topological order: every NodeRef input of a configuration is
// guaranteed to name a configuration earlier in the returned list. Cycles
// are rejected as *CircularDependencyError; a configuration whose type id
// has no registered factory is rejected as *registry.UnknownTransformError.
func (m *Manager) BuildTransforms() ([]Base, error) {
	m.mu.Lock()
	configs := make([]*Configuration, len(m.configs))
	copy(configs, m.configs)
	factories := make(map[string]Factory, len(m.factories))
	for k, v := range m.factories {
		factories[k] = v
	}
	m.mu.Unlock()

	ordered, err := topologicalSort(configs)
	if err != nil {
		return nil, err
	}

	out := make([]Base, 0, len(ordered))
	for _, cfg := range ordered {
		factory, ok := factories[cfg.Metadata.ID]
		if !ok {
			return nil, &registry.UnknownTransformError{TypeID: cfg.Metadata.ID}
		}
		t, err := factory(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// topologicalSort orders configs so every NodeRef dependency of a
// configuration precedes it, preferring the original registration order
// among nodes whose dependencies are equally satisfied (Kahn's algorithm
// with a stable tie-break).
func topologicalSort(configs []*Configuration) ([]*Configuration, error) {
	deps := make(map[string]map[string]struct{}, len(configs))
	present := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		present[cfg.ID] = struct{}{}
	}
	for _, cfg := range configs {
		depSet := make(map[string]struct{})
		for _, vals := range cfg.Inputs {
			for _, iv := range vals {
				if ref, ok := iv.NodeRef(); ok {
					if _, known := present[ref.NodeID]; known {
						depSet[ref.NodeID] = struct{}{}
					}
				}
			}
		}
		deps[cfg.ID] = depSet
	}

	resolved := make(map[string]struct{}, len(configs))
	remaining := append([]*Configuration(nil), configs...)
	var ordered []*Configuration

	for len(remaining) > 0 {
		progressed := false
		var next []*Configuration
		for _, cfg := range remaining {
			ready := true
			for dep := range deps[cfg.ID] {
				if _, ok := resolved[dep]; !ok {
					ready = false
					break
				}
			}
			if ready {
				ordered = append(ordered, cfg)
				resolved[cfg.ID] = struct{}{}
				progressed = true
			} else {
				next = append(next, cfg)
			}
		}
		if !progressed {
			ids := make([]string, len(next))
			for i, cfg := range next {
				ids[i] = cfg.ID
			}
			return nil, &CircularDependencyError{NodeIDs: ids}
		}
		remaining = next
	}
	return ordered, nil
}
