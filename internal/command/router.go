package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"willybot/internal/observability"
	"willybot/pkg/errors"
)

// GenericFailureReply is the terminal reply for any error a handler did
// not translate into a user-visible message.
const GenericFailureReply = "Error procesando tu solicitud."

// HandlerFunc processes one invocation. Errors are normalized by the
// router into exactly one terminal reply.
type HandlerFunc func(ctx context.Context, inv *Invocation, r Responder) error

// Router classifies interactions, enforces the acknowledgment deadline
// and dispatches to the registered handler. One dispatch table covers all
// chat commands; user context-menu commands get their own table because
// names can collide across types.
type Router struct {
	slash       map[string]HandlerFunc
	contextMenu map[string]HandlerFunc
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewRouter creates an empty router. metrics may be nil.
func NewRouter(logger *zap.Logger, metrics *observability.Metrics) *Router {
	return &Router{
		slash:       make(map[string]HandlerFunc),
		contextMenu: make(map[string]HandlerFunc),
		logger:      logger,
		metrics:     metrics,
	}
}

// RegisterSlash binds a chat command name to its handler.
func (rt *Router) RegisterSlash(name string, h HandlerFunc) {
	rt.slash[name] = h
}

// RegisterUserContext binds a user context-menu command name to its handler.
func (rt *Router) RegisterUserContext(name string, h HandlerFunc) {
	rt.contextMenu[name] = h
}

// Handle processes one gateway interaction event. Unrecognized command
// types and names return with no observable effect. Every recognized
// command is deferred immediately and ends in exactly one terminal reply.
func (rt *Router) Handle(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return
	}

	inv := NewInvocation(ic)

	// Best-effort structured log of every received interaction
	rt.logger.Info("interaction received",
		zap.String("command", inv.Command),
		zap.Bool("context_menu", inv.IsContextMenu),
		zap.String("correlation_id", inv.CorrelationID),
		zap.String("guild_id", inv.GuildID),
		zap.String("channel_id", inv.ChannelID),
		zap.String("user", inv.UserName),
	)

	var handler HandlerFunc
	var ok bool
	if inv.IsContextMenu {
		handler, ok = rt.contextMenu[inv.Command]
	} else {
		handler, ok = rt.slash[inv.Command]
	}
	if !ok {
		return
	}

	rt.Dispatch(context.Background(), inv, NewDiscordResponder(s, ic), handler)
}

// Dispatch runs the acknowledgment and error-normalization wrapper around
// a handler. Split from Handle so tests can drive it with a fake Responder.
func (rt *Router) Dispatch(ctx context.Context, inv *Invocation, r Responder, handler HandlerFunc) {
	// 3-second rule: always ack first
	if err := r.Defer(); err != nil {
		rt.logger.Error("failed to defer interaction",
			zap.String("command", inv.Command),
			zap.String("correlation_id", inv.CorrelationID),
			zap.Error(err),
		)
		if err := r.ReplyEphemeral(GenericFailureReply); err != nil {
			rt.logger.Error("failed to send fallback reply", zap.Error(err))
		}
		rt.record(inv.Command, "ack_failed")
		return
	}

	err := rt.run(ctx, inv, r, handler)
	if err == nil {
		rt.record(inv.Command, "ok")
		return
	}

	rt.logger.Error("handler failed",
		zap.String("command", inv.Command),
		zap.String("correlation_id", inv.CorrelationID),
		zap.Error(err),
	)

	reply := GenericFailureReply
	outcome := "error"
	if um, ok := err.(errors.UserMessager); ok {
		reply = um.UserMessage()
		if errors.IsErrorType(err, errors.ErrorTypeUser) {
			outcome = "user_error"
		}
	}

	if editErr := r.Edit(reply); editErr != nil {
		rt.logger.Error("failed to deliver error reply",
			zap.String("command", inv.Command),
			zap.Error(editErr),
		)
	}
	rt.record(inv.Command, outcome)
}

// run invokes the handler, turning panics into errors so no interaction
// can crash the process.
func (rt *Router) run(ctx context.Context, inv *Invocation, r Responder, handler HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.logger.Error("handler panicked",
				zap.String("command", inv.Command),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, inv, r)
}

func (rt *Router) record(cmd, outcome string) {
	if rt.metrics != nil {
		rt.metrics.RecordInteraction(cmd, outcome)
	}
}
