package command

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// MaxReplyLength is the platform's hard cap on message content.
const MaxReplyLength = 2000

// ReplyState tracks where an interaction is in its acknowledgment
// lifecycle. The platform requires the deferred ack within 3 seconds;
// after that only the edit/follow-up paths are legal.
type ReplyState int

const (
	ReplyUnacknowledged ReplyState = iota
	ReplyDeferred
	ReplyReplied
)

// Responder abstracts the platform's interaction response channel so
// handlers and tests don't need a live session.
type Responder interface {
	// Defer issues the deferred acknowledgment (the 3-second rule).
	Defer() error
	// Edit replaces the deferred reply's content. Only legal after Defer.
	Edit(content string) error
	// FollowUp sends an additional message after the deferred reply.
	FollowUp(content string) error
	// ReplyEphemeral sends a direct ephemeral reply. Only legal when the
	// interaction was never acknowledged.
	ReplyEphemeral(content string) error
	// State reports the current reply state.
	State() ReplyState
}

// Truncate hard-caps reply text at the platform limit.
func Truncate(content string) string {
	runes := []rune(content)
	if len(runes) > MaxReplyLength {
		return string(runes[:MaxReplyLength])
	}
	return content
}

// discordResponder implements Responder over a discordgo session.
type discordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction

	mu    sync.Mutex
	state ReplyState
}

// NewDiscordResponder wraps one interaction's response channel.
func NewDiscordResponder(s *discordgo.Session, ic *discordgo.InteractionCreate) Responder {
	return &discordResponder{
		session:     s,
		interaction: ic.Interaction,
	}
}

func (r *discordResponder) Defer() error {
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.state = ReplyDeferred
	r.mu.Unlock()
	return nil
}

func (r *discordResponder) Edit(content string) error {
	content = Truncate(content)
	_, err := r.session.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.state = ReplyReplied
	r.mu.Unlock()
	return nil
}

func (r *discordResponder) FollowUp(content string) error {
	content = Truncate(content)
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.state = ReplyReplied
	r.mu.Unlock()
	return nil
}

func (r *discordResponder) ReplyEphemeral(content string) error {
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: Truncate(content),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.state = ReplyReplied
	r.mu.Unlock()
	return nil
}

func (r *discordResponder) State() ReplyState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
