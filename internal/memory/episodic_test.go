package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/nidhogg/aeon/internal/agentctx"
	"go.uber.org/zap"
)

func TestEpisodicRecordAssignsIDAndTimestamp(t *testing.T) {
	log := NewEpisodic(zap.NewNop())

	ep := log.Record(context.Background(), &Episode{
		Context: agentctx.Snapshot{Emotion: "happy", Intent: "create"},
		Action:  "Start a new project",
	})

	if ep.ID == "" {
		t.Error("expected a generated ID")
	}
	if ep.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if log.Len() != 1 {
		t.Errorf("got %d episodes, want 1", log.Len())
	}
}

func TestEpisodicOrderAndRecent(t *testing.T) {
	log := NewEpisodic(zap.NewNop())
	for _, action := range []string{"first", "second", "third"} {
		log.Record(context.Background(), &Episode{Action: action})
	}

	all := log.All()
	if len(all) != 3 || all[0].Action != "first" || all[2].Action != "third" {
		t.Fatalf("episodes out of order: %+v", all)
	}

	recent := log.Recent(2)
	if len(recent) != 2 || recent[0].Action != "second" || recent[1].Action != "third" {
		t.Fatalf("Recent(2) = %+v", recent)
	}
	if got := log.Recent(10); len(got) != 3 {
		t.Errorf("Recent beyond length should return all, got %d", len(got))
	}
}

type failingSink struct{ calls int }

func (s *failingSink) InsertEpisode(context.Context, *Episode) error {
	s.calls++
	return errors.New("db down")
}

func TestEpisodicSinkErrorsDoNotDropEpisodes(t *testing.T) {
	log := NewEpisodic(zap.NewNop())
	sink := &failingSink{}
	log.SetSink(sink)

	log.Record(context.Background(), &Episode{Action: "work"})

	if sink.calls != 1 {
		t.Errorf("sink called %d times, want 1", sink.calls)
	}
	if log.Len() != 1 {
		t.Error("episode must be kept even when the sink fails")
	}
}
