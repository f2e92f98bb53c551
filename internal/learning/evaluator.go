package learning

import "github.com/nidhogg/aeon/internal/protocol"

// Verdict classifies a protocol's track record.
type Verdict string

const (
	VerdictInsufficientData Verdict = "insufficient_data"
	VerdictExcellent        Verdict = "excellent"
	VerdictAcceptable       Verdict = "acceptable"
	VerdictPoor             Verdict = "poor"
)

// minExecutions is how many runs a protocol needs before it can be judged.
const minExecutions = 3

// Evaluation is the verdict for one protocol.
type Evaluation struct {
	Protocol   string  `json:"protocol"`
	Verdict    Verdict `json:"verdict"`
	Reward     float64 `json:"reward"`
	Executions int     `json:"executions"`
}

// Evaluate judges a single protocol from its reward and execution count.
func Evaluate(p *protocol.Protocol) Evaluation {
	ev := Evaluation{
		Protocol:   p.Name,
		Reward:     p.Reward(),
		Executions: p.Executions(),
	}
	switch {
	case ev.Executions < minExecutions:
		ev.Verdict = VerdictInsufficientData
	case ev.Reward >= 4.0:
		ev.Verdict = VerdictExcellent
	case ev.Reward >= 2.0:
		ev.Verdict = VerdictAcceptable
	default:
		ev.Verdict = VerdictPoor
	}
	return ev
}

// EvaluateAll judges every registered protocol.
func EvaluateAll(m *protocol.Manager) []Evaluation {
	protocols := m.All()
	evals := make([]Evaluation, 0, len(protocols))
	for _, p := range protocols {
		evals = append(evals, Evaluate(p))
	}
	return evals
}
