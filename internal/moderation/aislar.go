package moderation

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Isolator applies the "Aislar" context-menu action: a fixed-duration
// communication timeout on the targeted member. One-shot API call, no
// state kept.
type Isolator struct {
	session  *discordgo.Session
	duration time.Duration
	logger   *zap.Logger
}

// NewIsolator creates an isolator with the configured timeout duration.
func NewIsolator(s *discordgo.Session, duration time.Duration, logger *zap.Logger) *Isolator {
	return &Isolator{session: s, duration: duration, logger: logger}
}

// Duration returns the configured timeout length.
func (i *Isolator) Duration() time.Duration {
	return i.duration
}

// Isolate times the member out until now+duration.
func (i *Isolator) Isolate(guildID, userID string) error {
	until := time.Now().Add(i.duration)

	i.logger.Info("isolating member",
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.Time("until", until),
	)

	return i.session.GuildMemberTimeout(guildID, userID, &until)
}
