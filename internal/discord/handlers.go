package discord

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"willybot/internal/command"
	"willybot/pkg/errors"
)

// User-visible reply strings (Spanish, kept stable for existing servers)
const (
	replyGuildOnly = "Este comando solo funciona dentro de un servidor."
	replyJoinVoice = "conéctate a un canal de voz"
)

// AnswerForwarder relays a command to the automation webhook and returns
// the reply text.
type AnswerForwarder interface {
	Forward(ctx context.Context, inv *command.Invocation) (string, error)
}

// Speaker runs one TTS playback sequence in a guild voice channel.
type Speaker interface {
	Speak(ctx context.Context, guildID, channelID, text string) error
}

// MemberIsolator applies the fixed-duration timeout action.
type MemberIsolator interface {
	Isolate(guildID, userID string) error
	Duration() time.Duration
}

// ChannelResolver finds the voice channel a user currently occupies.
type ChannelResolver func(guildID, userID string) (string, bool)

// Handler owns the command handlers and their collaborators.
type Handler struct {
	forwarder      AnswerForwarder
	speaker        Speaker
	isolator       MemberIsolator
	resolveChannel ChannelResolver
	logger         *zap.Logger
}

// NewHandler wires the handlers.
func NewHandler(forwarder AnswerForwarder, speaker Speaker, isolator MemberIsolator, resolve ChannelResolver, logger *zap.Logger) *Handler {
	return &Handler{
		forwarder:      forwarder,
		speaker:        speaker,
		isolator:       isolator,
		resolveChannel: resolve,
		logger:         logger,
	}
}

// RegisterAll binds every recognized command on the router.
func (h *Handler) RegisterAll(rt *command.Router) {
	rt.RegisterSlash(command.CommandWillybot, h.HandleForwarded)
	rt.RegisterSlash(command.CommandCensura, h.HandleForwarded)
	rt.RegisterSlash(command.CommandWillyTTS, h.HandleWillyTTS)
	rt.RegisterUserContext(command.CommandAislar, h.HandleAislar)
}

// HandleForwarded serves willybot and censura: both are relayed to the
// automation webhook and answered with whatever it returns.
func (h *Handler) HandleForwarded(ctx context.Context, inv *command.Invocation, r command.Responder) error {
	answer, err := h.forwarder.Forward(ctx, inv)
	if err != nil {
		return err
	}
	return r.Edit(answer)
}

// HandleWillyTTS reads a message aloud in the invoking user's voice
// channel. Ordering matters: voice-channel resolution and audio fetch
// both happen before any voice join.
func (h *Handler) HandleWillyTTS(ctx context.Context, inv *command.Invocation, r command.Responder) error {
	if inv.GuildID == "" {
		return errors.NewUserError(replyGuildOnly)
	}

	channelID, ok := h.resolveChannel(inv.GuildID, inv.UserID)
	if !ok {
		return errors.NewUserError(replyJoinVoice)
	}

	if err := r.Edit("WillyTTS: " + inv.Mensaje); err != nil {
		h.logger.Warn("failed to edit tts acknowledgment", zap.Error(err))
	}

	if err := h.speaker.Speak(ctx, inv.GuildID, channelID, inv.Mensaje); err != nil {
		// Missing TTS credentials get their own follow-up so the
		// "WillyTTS: ..." reply stays visible
		var cfgErr *errors.ErrConfigMissing
		if stderrors.As(err, &cfgErr) {
			if fuErr := r.FollowUp(cfgErr.UserMessage()); fuErr != nil {
				h.logger.Error("failed to send config follow-up", zap.Error(fuErr))
			}
			return nil
		}
		return err
	}

	return nil
}

// HandleAislar times out the targeted member for the configured duration.
func (h *Handler) HandleAislar(ctx context.Context, inv *command.Invocation, r command.Responder) error {
	if inv.GuildID == "" {
		return errors.NewUserError(replyGuildOnly)
	}

	if err := h.isolator.Isolate(inv.GuildID, inv.TargetUserID); err != nil {
		return err
	}

	minutes := int(h.isolator.Duration().Minutes())
	return r.Edit(fmt.Sprintf("<@%s> aislado durante %d minutos.", inv.TargetUserID, minutes))
}
