package voice

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"willybot/pkg/errors"
)

// discordConn adapts *discordgo.VoiceConnection to the Conn interface.
type discordConn struct {
	vc *discordgo.VoiceConnection
}

func (c *discordConn) Speaking(b bool) error {
	return c.vc.Speaking(b)
}

func (c *discordConn) Disconnect() error {
	return c.vc.Disconnect()
}

func (c *discordConn) OpusSend() chan<- []byte {
	return c.vc.OpusSend
}

// SessionJoiner joins voice channels through a live discordgo session.
type SessionJoiner struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewSessionJoiner wraps a gateway session.
func NewSessionJoiner(s *discordgo.Session, logger *zap.Logger) *SessionJoiner {
	return &SessionJoiner{session: s, logger: logger}
}

// Join connects to a voice channel and polls until the connection reports
// ready or the context deadline passes. A connection that never becomes
// ready is destroyed here; it must not leak to the caller.
func (j *SessionJoiner) Join(ctx context.Context, guildID, channelID string) (Conn, error) {
	vc, err := j.session.ChannelVoiceJoin(guildID, channelID, false, false)
	if err != nil {
		return nil, errors.NewVoiceJoinFailed(guildID, channelID, err)
	}

	if err := waitForReady(ctx, vc); err != nil {
		if derr := vc.Disconnect(); derr != nil {
			j.logger.Warn("disconnect after ready timeout failed",
				zap.String("guild_id", guildID),
				zap.Error(derr),
			)
		}
		return nil, err
	}

	return &discordConn{vc: vc}, nil
}

// waitForReady polls the ready flag until it flips or the context
// deadline passes. The gateway mutates the flag under the connection's
// lock, so the read takes it too.
func waitForReady(ctx context.Context, vc *discordgo.VoiceConnection) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		vc.RLock()
		ready := vc.Ready
		vc.RUnlock()
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.NewVoiceTimeout("voice connection ready", ReadyTimeout)
		case <-ticker.C:
		}
	}
}

// ResolveVoiceChannel finds the voice channel a user currently occupies.
// The state cache is checked first; if voice state updates haven't been
// seen for the user yet, the guild's cached voice states are scanned as a
// fallback.
func ResolveVoiceChannel(s *discordgo.Session, guildID, userID string) (string, bool) {
	vs, err := s.State.VoiceState(guildID, userID)
	if err == nil && vs != nil && vs.ChannelID != "" {
		return vs.ChannelID, true
	}

	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil {
		return "", false
	}
	for _, voiceState := range guild.VoiceStates {
		if voiceState.UserID == userID && voiceState.ChannelID != "" {
			return voiceState.ChannelID, true
		}
	}
	return "", false
}
