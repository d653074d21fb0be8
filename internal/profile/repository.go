package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
)

// Repository is the Postgres-backed profile stats store. Game sessions stay
// in-memory; only long-lived player profile stats live here, and every
// caller treats these operations as fire-and-forget.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profile repository on top of a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetIDByUsername resolves the profile ID for a normalized username. An
// unknown username yields an empty ID with no error, which callers take as
// "skip the stat".
func (r *Repository) GetIDByUsername(ctx context.Context, username string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM profiles WHERE username = $1`,
		models.NormalizeName(username),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get profile id: %w", err)
	}
	return id, nil
}

// IncrementParticipated bumps the finals-participated counter.
func (r *Repository) IncrementParticipated(ctx context.Context, profileID string) error {
	return r.increment(ctx, profileID, "finals_participated")
}

// IncrementFinalCorrects bumps the final-jeopardy-corrects counter.
func (r *Repository) IncrementFinalCorrects(ctx context.Context, profileID string) error {
	return r.increment(ctx, profileID, "final_jeopardy_corrects")
}

// IncrementGamesWon bumps the games-won counter.
func (r *Repository) IncrementGamesWon(ctx context.Context, profileID string) error {
	return r.increment(ctx, profileID, "games_won")
}

// IncrementGamesFinished bumps the games-finished counter.
func (r *Repository) IncrementGamesFinished(ctx context.Context, profileID string) error {
	return r.increment(ctx, profileID, "games_finished")
}

// AddMoneyWon adds prize money to the profile's lifetime total.
func (r *Repository) AddMoneyWon(ctx context.Context, profileID string, amount int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE profiles SET money_won = money_won + $2 WHERE id = $1`,
		profileID, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to add money won: %w", err)
	}
	return nil
}

// increment bumps one of the fixed counter columns. The column name is
// always one of the constants above, never caller input.
func (r *Repository) increment(ctx context.Context, profileID, column string) error {
	query := fmt.Sprintf(`UPDATE profiles SET %s = %s + 1 WHERE id = $1`, column, column)
	if _, err := r.pool.Exec(ctx, query, profileID); err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return nil
}
