package command

import (
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Recognized command names. Anything else is ignored by the router.
const (
	CommandWillybot = "willybot"
	CommandCensura  = "censura"
	CommandWillyTTS = "willytts"
	CommandAislar   = "Aislar"
)

// Invocation is an immutable snapshot of one interaction. It is built once
// from the gateway event and never mutated; handlers use it to build
// payloads and correlate logs.
type Invocation struct {
	Command       string
	InteractionID string
	CorrelationID string
	UserID        string
	UserName      string
	ChannelID     string
	GuildID       string

	// Slash command options
	Texto    string // willybot
	Activada bool   // censura
	Mensaje  string // willytts

	// Context menu target
	TargetUserID string

	IsContextMenu bool
}

// NewInvocation snapshots an application-command interaction.
func NewInvocation(ic *discordgo.InteractionCreate) *Invocation {
	data := ic.ApplicationCommandData()

	inv := &Invocation{
		Command:       data.Name,
		InteractionID: ic.ID,
		CorrelationID: uuid.NewString(),
		ChannelID:     ic.ChannelID,
		GuildID:       ic.GuildID,
		IsContextMenu: data.CommandType == discordgo.UserApplicationCommand,
	}

	// In guilds the user rides on Member; in DMs on User
	if ic.Member != nil && ic.Member.User != nil {
		inv.UserID = ic.Member.User.ID
		inv.UserName = ic.Member.User.Username
	} else if ic.User != nil {
		inv.UserID = ic.User.ID
		inv.UserName = ic.User.Username
	}

	if inv.IsContextMenu {
		inv.TargetUserID = data.TargetID
		return inv
	}

	for _, opt := range data.Options {
		switch opt.Name {
		case "texto":
			inv.Texto = opt.StringValue()
		case "activada":
			inv.Activada = opt.BoolValue()
		case "mensaje":
			inv.Mensaje = opt.StringValue()
		}
	}

	return inv
}
