package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nidhogg/aeon/internal/memory"
)

// InsertEpisode persists one episode. Implements memory.EpisodeSink.
func (s *Store) InsertEpisode(ctx context.Context, ep *memory.Episode) error {
	contextJSON, err := json.Marshal(ep.Context)
	if err != nil {
		return fmt.Errorf("marshal episode context: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO episodes (id, context, action, result, protocol, reward, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ep.ID, contextJSON, ep.Action, ep.Result, ep.Protocol, ep.Reward, ep.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// ListEpisodes returns the most recent episodes, newest first.
func (s *Store) ListEpisodes(ctx context.Context, limit int) ([]*memory.Episode, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, context, action, result, protocol, reward, created_at
		FROM episodes
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*memory.Episode
	for rows.Next() {
		ep := &memory.Episode{}
		var contextJSON []byte
		if err := rows.Scan(&ep.ID, &contextJSON, &ep.Action, &ep.Result, &ep.Protocol, &ep.Reward, &ep.Timestamp); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if len(contextJSON) > 0 {
			json.Unmarshal(contextJSON, &ep.Context)
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}
