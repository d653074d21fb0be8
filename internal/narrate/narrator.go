package narrate

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/phase"
)

// Liveness answers whether a game still exists; a narration sequence whose
// game has been torn down must stop immediately.
type Liveness interface {
	Exists(gameID string) bool
}

// Broadcaster defines what the narrator needs from the hub.
type Broadcaster interface {
	Broadcast(gameID string, event gateway.GameEvent)
}

// HostNarrator paces the AI host's narration. Voice synthesis and playback
// happen on the client; the server only cues lines in order, runs each
// step's After hook between lines, and reports liveness so callers can
// abort sequences for dead games.
type HostNarrator struct {
	hub   Broadcaster
	games Liveness
	clock clockwork.Clock
}

// NewHostNarrator creates a narrator.
func NewHostNarrator(hub Broadcaster, games Liveness, clock clockwork.Clock) *HostNarrator {
	return &HostNarrator{hub: hub, games: games, clock: clock}
}

// VoiceSequence implements phase.Narrator.
func (n *HostNarrator) VoiceSequence(ctx context.Context, gameID string, sess *models.GameSession, steps []phase.VoiceStep) bool {
	for _, step := range steps {
		if ctx.Err() != nil || !n.games.Exists(gameID) {
			return false
		}

		n.hub.Broadcast(gameID, gateway.NewEvent(gameID, gateway.EventHostNarration, gateway.HostNarrationPayload{
			Slot:    step.Slot,
			AssetID: step.AssetID,
		}))
		if step.Pad > 0 {
			n.clock.Sleep(step.Pad)
		}
		if step.After != nil {
			step.After()
		}
	}
	return n.games.Exists(gameID)
}
