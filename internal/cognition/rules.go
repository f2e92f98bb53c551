package cognition

import (
	"strings"

	"github.com/nidhogg/aeon/internal/agentctx"
)

// Rules is the deterministic reasoning strategy used when no LLM provider
// is configured, and as the fallback when every provider fails.
type Rules struct{}

var (
	distressedEmotions = map[string]bool{"sad": true, "angry": true, "frustrated": true}
	positiveEmotions   = map[string]bool{"happy": true, "excited": true}
	productiveIntents  = map[string]bool{"work": true, "study": true, "focus": true}
)

// Think evaluates the context against a fixed rule table.
func (Rules) Think(snap agentctx.Snapshot) string {
	emotion := strings.ToLower(snap.Emotion)
	intent := strings.ToLower(snap.Intent)

	switch {
	case distressedEmotions[emotion]:
		return "User is emotionally distressed. Prioritize emotional support."
	case productiveIntents[intent]:
		return "User intends productivity. Reduce distractions and structure tasks."
	case positiveEmotions[emotion]:
		return "User has positive energy. Encourage creativity or exploration."
	default:
		return "Neutral context detected. Maintain supportive baseline behavior."
	}
}
