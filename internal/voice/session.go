package voice

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Conn is the narrow slice of a platform voice connection the session
// layer needs. It exists so the manager and its tests never touch a live
// gateway.
type Conn interface {
	// Speaking toggles the speaking indicator.
	Speaking(b bool) error
	// Disconnect tears the voice transport down.
	Disconnect() error
	// OpusSend returns the channel opus packets are written to.
	OpusSend() chan<- []byte
}

// Joiner opens a voice connection and waits for it to become ready within
// the context deadline. Implementations must destroy the connection
// themselves when readiness is never reached.
type Joiner interface {
	Join(ctx context.Context, guildID, channelID string) (Conn, error)
}

// Session represents one active audio playback in one guild. It
// exclusively owns its connection: Teardown runs at most once and is
// called on every exit path (completion, error, supersession, timeout).
type Session struct {
	GuildID string
	Conn    Conn
	Player  *Player

	logger     *zap.Logger
	onTeardown func(reason string)
	closeOnce  sync.Once
}

// NewSession bundles a connection and player for a guild. onTeardown runs
// once after the connection is destroyed (registry removal, metrics).
func NewSession(guildID string, conn Conn, player *Player, logger *zap.Logger, onTeardown func(reason string)) *Session {
	return &Session{
		GuildID:    guildID,
		Conn:       conn,
		Player:     player,
		logger:     logger,
		onTeardown: onTeardown,
	}
}

// Teardown stops playback and destroys the connection. It is best-effort
// by contract: destruction errors are logged, never escalated, and cannot
// affect whatever session comes next.
func (s *Session) Teardown(reason string) {
	s.closeOnce.Do(func() {
		if s.Player != nil {
			s.Player.Stop()
		}
		if err := s.Conn.Disconnect(); err != nil {
			s.logger.Warn("voice disconnect failed",
				zap.String("guild_id", s.GuildID),
				zap.String("reason", reason),
				zap.Error(err),
			)
		}
		s.logger.Debug("voice session torn down",
			zap.String("guild_id", s.GuildID),
			zap.String("reason", reason),
		)
		if s.onTeardown != nil {
			s.onTeardown(reason)
		}
	})
}
