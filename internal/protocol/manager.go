package protocol

import (
	"sync"

	"github.com/nidhogg/aeon/internal/agentctx"
	"go.uber.org/zap"
)

// Manager holds the registered protocols and selects the best match for a
// given context. Registration order is preserved: when two matching
// protocols carry the same reward, the first-registered one wins.
type Manager struct {
	protocols []*Protocol
	byName    map[string]int // name -> index into protocols
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewManager creates an empty protocol manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		byName: make(map[string]int),
		logger: logger,
	}
}

// Register adds a protocol. Registering a name that already exists replaces
// the previous protocol in place, keeping its original position in the
// tie-break order.
func (m *Manager) Register(p *Protocol) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.byName[p.Name]; ok {
		m.protocols[idx] = p
		m.logger.Info("replaced protocol", zap.String("name", p.Name))
		return
	}
	m.byName[p.Name] = len(m.protocols)
	m.protocols = append(m.protocols, p)
	m.logger.Info("registered protocol",
		zap.String("name", p.Name),
		zap.Float64("reward", p.Reward()))
}

// Best returns the matching protocol with the strictly highest reward, or
// nil when no condition holds. Ties go to the first-registered protocol.
func (m *Manager) Best(snap agentctx.Snapshot) *Protocol {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *Protocol
	bestReward := -1.0
	for _, p := range m.protocols {
		if !p.Matches(snap) {
			continue
		}
		if r := p.Reward(); r > bestReward {
			best = p
			bestReward = r
		}
	}
	return best
}

// Get returns a protocol by name.
func (m *Manager) Get(name string) (*Protocol, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return m.protocols[idx], true
}

// Remove deletes a protocol by name.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byName[name]
	if !ok {
		return
	}
	m.protocols = append(m.protocols[:idx], m.protocols[idx+1:]...)
	delete(m.byName, name)
	for i := idx; i < len(m.protocols); i++ {
		m.byName[m.protocols[i].Name] = i
	}
}

// All returns the protocols in registration order.
func (m *Manager) All() []*Protocol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Protocol, len(m.protocols))
	copy(out, m.protocols)
	return out
}

// Snapshot returns serializable stats for every protocol, in registration
// order.
func (m *Manager) Snapshot() []Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Stats, 0, len(m.protocols))
	for _, p := range m.protocols {
		out = append(out, p.Stats())
	}
	return out
}

// Len returns the number of registered protocols.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.protocols)
}
