package agent

import (
	"fmt"
	"strings"
)

// Governance vetoes goals and actions that touch forbidden territory.
// The term list is deliberately blunt: a veto here is a hard stop, not a
// scoring signal.
type Governance struct {
	forbidden []string
}

// NewGovernance creates a governance gate. Extra terms extend the default
// forbidden list.
func NewGovernance(extra ...string) *Governance {
	return &Governance{
		forbidden: append([]string{"harm", "illegal", "exploit"}, extra...),
	}
}

// Approve reports whether the text passes the governance gate.
func (g *Governance) Approve(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range g.forbidden {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// Check returns an error naming the veto when the text is rejected.
func (g *Governance) Check(text string) error {
	if g.Approve(text) {
		return nil
	}
	return fmt.Errorf("rejected by governance policy")
}
