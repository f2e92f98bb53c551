package store

import (
	"context"
	"fmt"

	"github.com/nidhogg/aeon/internal/protocol"
)

// SaveRewards upserts the current reward state of every protocol, so
// learned rewards survive restarts.
func (s *Store) SaveRewards(ctx context.Context, stats []protocol.Stats) error {
	for _, st := range stats {
		_, err := s.db.Exec(ctx, `
			INSERT INTO protocol_rewards (name, reward, executions, mutant, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (name)
			DO UPDATE SET reward = $2, executions = $3, updated_at = now()`,
			st.Name, st.Reward, st.Executions, st.Mutant,
		)
		if err != nil {
			return fmt.Errorf("save reward %s: %w", st.Name, err)
		}
	}
	return nil
}

// LoadRewards restores persisted rewards into the matching registered
// protocols. Unknown names are skipped: conditions and actions are code,
// only the learned reward is data.
func (s *Store) LoadRewards(ctx context.Context, m *protocol.Manager) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT name, reward FROM protocol_rewards`)
	if err != nil {
		return 0, fmt.Errorf("load rewards: %w", err)
	}
	defer rows.Close()

	restored := 0
	for rows.Next() {
		var name string
		var reward float64
		if err := rows.Scan(&name, &reward); err != nil {
			return restored, fmt.Errorf("scan reward: %w", err)
		}
		if p, ok := m.Get(name); ok {
			p.SetReward(reward)
			restored++
		}
	}
	return restored, rows.Err()
}
