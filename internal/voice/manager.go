package voice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"willybot/internal/observability"
	"willybot/internal/tts"
)

// Bounded waits for the session state machine.
const (
	ReadyTimeout   = 20 * time.Second
	PlayingTimeout = 15 * time.Second
	IdleTimeout    = 10 * time.Minute
)

// Manager owns the per-guild session lifecycle: supersede, fetch, join,
// play, teardown. All cross-invocation state lives in the registry.
type Manager struct {
	registry *Registry
	tts      tts.Client
	joiner   Joiner
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewManager wires the session manager. metrics may be nil.
func NewManager(registry *Registry, ttsClient tts.Client, joiner Joiner, logger *zap.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		registry: registry,
		tts:      ttsClient,
		joiner:   joiner,
		logger:   logger,
		metrics:  metrics,
	}
}

// Registry exposes the underlying registry (status server, tests).
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Speak runs one full playback sequence for a guild: supersede any prior
// session, synthesize, join voice, play to completion. On every exit —
// completion, timeout or error — the connection is destroyed and the
// guild's registry entry cleared exactly once.
//
// Audio is fetched before voice is joined: no connection is opened for
// content that will not play.
func (m *Manager) Speak(ctx context.Context, guildID, channelID, text string) error {
	// Supersede whatever is currently playing in this guild
	if prev := m.registry.Take(guildID); prev != nil {
		m.logger.Info("superseding active voice session", zap.String("guild_id", guildID))
		prev.Teardown("superseded")
	}
	m.syncGauge()

	start := time.Now()
	audio, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		// No join happened; the registry is untouched
		return err
	}
	if m.metrics != nil {
		m.metrics.ObserveSynthesisLatency(time.Since(start))
	}

	joinCtx, cancelJoin := context.WithTimeout(ctx, ReadyTimeout)
	defer cancelJoin()
	conn, err := m.joiner.Join(joinCtx, guildID, channelID)
	if err != nil {
		return err
	}

	resource, probed := NewResource(audio)
	if !probed {
		m.logger.Warn("ogg probe failed, assuming ogg/opus",
			zap.String("guild_id", guildID),
			zap.Int("bytes", len(audio)),
		)
	}

	player := NewPlayer(conn, resource, m.logger)
	session := NewSession(guildID, conn, player, m.logger, nil)
	session.onTeardown = func(reason string) {
		m.registry.Remove(guildID, session)
		m.syncGauge()
		if m.metrics != nil {
			m.metrics.VoiceTeardowns.WithLabelValues(reason).Inc()
		}
	}

	// Register before playback starts so a concurrent invocation for the
	// same guild can find and supersede this session
	if prev := m.registry.Swap(guildID, session); prev != nil {
		prev.Teardown("superseded")
	}
	m.syncGauge()

	// Exactly-once cleanup on every exit path; earlier explicit calls
	// with a more specific reason make this a no-op
	defer session.Teardown("finished")

	player.Start()

	playCtx, cancelPlay := context.WithTimeout(ctx, PlayingTimeout)
	err = player.WaitPlaying(playCtx)
	cancelPlay()
	if err != nil {
		session.Teardown("playing_timeout")
		return err
	}

	idleCtx, cancelIdle := context.WithTimeout(ctx, IdleTimeout)
	err = player.WaitIdle(idleCtx)
	cancelIdle()
	if err != nil {
		session.Teardown("idle_timeout")
		return err
	}

	m.logger.Info("voice playback finished",
		zap.String("guild_id", guildID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (m *Manager) syncGauge() {
	if m.metrics != nil {
		m.metrics.ActiveVoiceSessions.Set(float64(m.registry.Len()))
	}
}
