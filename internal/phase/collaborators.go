package phase

import (
	"context"
	"time"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// Broadcaster defines what the controller needs from the hub.
type Broadcaster interface {
	Broadcast(gameID string, event gateway.GameEvent)
}

// VoiceStep is one unit of AI host narration. Slot names a line to be
// synthesized for the current context; AssetID plays a pre-rendered asset.
// After, when set, runs between this step finishing and the next starting.
type VoiceStep struct {
	Slot    string
	AssetID string
	Pad     time.Duration
	After   func()
}

// Narrator plays host narration sequences. VoiceSequence returns false when
// the session was torn down or transitioned away underneath the in-flight
// narration; callers must abort the remainder of their sequence when it
// does.
type Narrator interface {
	VoiceSequence(ctx context.Context, gameID string, sess *models.GameSession, steps []VoiceStep) bool
}

// Judgment is the judge's ruling on one submitted drawing.
type Judgment struct {
	Verdict    models.Verdict
	Transcript string
}

// Judge scores a drawing against the expected answer.
type Judge interface {
	JudgeImage(ctx context.Context, expectedAnswer, drawingDataURL string) (Judgment, error)
}

// ProfileStats is the fire-and-forget stat sink. Lookups that resolve no
// profile ID cause the associated increment to be skipped silently; errors
// are logged by the caller and never reach game state.
type ProfileStats interface {
	GetIDByUsername(ctx context.Context, username string) (string, error)
	IncrementParticipated(ctx context.Context, profileID string) error
	IncrementFinalCorrects(ctx context.Context, profileID string) error
	IncrementGamesWon(ctx context.Context, profileID string) error
	IncrementGamesFinished(ctx context.Context, profileID string) error
	AddMoneyWon(ctx context.Context, profileID string, amount int) error
}
