package learning

import (
	"math"

	"github.com/nidhogg/aeon/internal/protocol"
)

// Report summarizes the state of the protocol population.
type Report struct {
	Protocols   int              `json:"protocols"`
	Mutants     int              `json:"mutants"`
	Executions  int              `json:"executions"`
	MeanReward  float64          `json:"mean_reward"`
	RewardStdev float64          `json:"reward_stdev"`
	Best        string           `json:"best,omitempty"`
	Worst       string           `json:"worst,omitempty"`
	Stats       []protocol.Stats `json:"stats"`
}

// Research computes population statistics over all registered protocols.
func Research(m *protocol.Manager) Report {
	stats := m.Snapshot()
	report := Report{Protocols: len(stats), Stats: stats}
	if len(stats) == 0 {
		return report
	}

	var sum float64
	best, worst := stats[0], stats[0]
	for _, s := range stats {
		sum += s.Reward
		report.Executions += s.Executions
		if s.Mutant {
			report.Mutants++
		}
		if s.Reward > best.Reward {
			best = s
		}
		if s.Reward < worst.Reward {
			worst = s
		}
	}
	report.MeanReward = sum / float64(len(stats))
	report.Best = best.Name
	report.Worst = worst.Name

	var variance float64
	for _, s := range stats {
		d := s.Reward - report.MeanReward
		variance += d * d
	}
	report.RewardStdev = math.Sqrt(variance / float64(len(stats)))
	return report
}
