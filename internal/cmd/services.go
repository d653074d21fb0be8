package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Reldnahc/ai-jeopardy-sub000/clients/aihost_client"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/dbconfig"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/game"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/gateway"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/lobby"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/models"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/narrate"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/phase"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/profile"
	"github.com/Reldnahc/ai-jeopardy-sub000/internal/timer"
)

// Services holds the wired application graph.
type Services struct {
	Store  *game.GameStore
	Hub    *gateway.Hub
	App    *game.App
	mirror *gateway.EventMirror
	pool   *pgxpool.Pool
}

// setupServices wires the store, hub, timers, lifecycle, phase controller
// and collaborators together.
func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	store := game.NewGameStore()
	clock := clockwork.NewRealClock()

	hub := gateway.NewHub(gateway.DefaultConnectionConfig())

	var mirror *gateway.EventMirror
	if cfg.NATS.URL != "" {
		mirrorCfg := gateway.DefaultMirrorConfig()
		mirrorCfg.URL = cfg.NATS.URL
		if cfg.NATS.SubjectPrefix != "" {
			mirrorCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		}
		m, err := gateway.NewEventMirror(mirrorCfg)
		if err != nil {
			// The mirror is an observability feature; games run without it.
			log.Warn().Err(err).Msg("event mirror unavailable, continuing without NATS")
		} else {
			hub.SetMirror(m)
			mirror = m
		}
	}

	timers := timer.NewService(store, hub, clock)
	lifecycle := lobby.NewManager(store, hub, clock, time.Duration(cfg.Game.LobbyGraceSeconds)*time.Second)
	narrator := narrate.NewHostNarrator(hub, store, clock)
	aiHost := aihost_client.NewAIHostClient(cfg.AIHost.BaseURL, cfg.AIHost.APIKey)

	var profiles phase.ProfileStats
	var pool *pgxpool.Pool
	if cfg.Profiles.Enabled {
		dbCfg := dbconfig.NewConfigFromEnv()
		p, err := pgxpool.New(ctx, dbCfg.DSN())
		if err != nil {
			log.Warn().Err(err).Msg("profile store unavailable, stats disabled")
		} else if err := p.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("profile store unreachable, stats disabled")
			p.Close()
		} else {
			pool = p
			profiles = profile.NewRepository(pool)
			log.Info().Str("host", dbCfg.Host).Str("database", dbCfg.Database).Msg("profile store connected")
		}
	}

	phases := phase.NewController(timers, hub, narrator, aiHost, profiles)
	app := game.NewApp(store, hub, phases, timers, lifecycle, aiHost)
	app.SetDefaultSettings(models.LobbySettings{
		BuzzerSeconds:     cfg.Game.BuzzerSeconds,
		FinalWagerSeconds: cfg.Game.FinalWagerSeconds,
		FinalDrawSeconds:  cfg.Game.FinalDrawSeconds,
	})
	hub.SetHandler(app)

	return &Services{
		Store:  store,
		Hub:    hub,
		App:    app,
		mirror: mirror,
		pool:   pool,
	}, nil
}

// Close releases external connections.
func (s *Services) Close() {
	if s.mirror != nil {
		s.mirror.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
