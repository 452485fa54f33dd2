package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"willybot/internal/command"
	"willybot/pkg/logger"
)

// One-shot registration tool for the bot's global application commands.
// Replaces the older per-command scripts: upserts by name and type, so
// re-running is safe and never wipes commands it doesn't own.

func slashCommands() []*discordgo.ApplicationCommand {
	minOne := 1

	return []*discordgo.ApplicationCommand{
		{
			Name:        command.CommandWillybot,
			Type:        discordgo.ChatApplicationCommand,
			Description: "habla con willybot",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "texto",
					Description: "Escribe lo que quieres decirle a WillyBot",
					Required:    true,
					MinLength:   &minOne,
					MaxLength:   2000,
				},
			},
		},
		{
			Name:        command.CommandCensura,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Activa o desactiva la censura de Willybot",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "activada",
					Description: "Si: Censura activada. No: Censura desactivada",
					Required:    true,
				},
			},
		},
		{
			Name:        command.CommandWillyTTS,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Lee un mensaje con voz usando ElevenLabs",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mensaje",
					Description: "Texto que WillyBot dirá en voz alta",
					Required:    true,
					MinLength:   &minOne,
					MaxLength:   500,
				},
			},
		},
	}
}

func contextCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name: command.CommandAislar,
			Type: discordgo.UserApplicationCommand,
		},
	}
}

func main() {
	slashOnly := flag.Bool("slash", false, "register only the slash commands")
	contextOnly := flag.Bool("context", false, "register only the context-menu commands")
	flag.Parse()

	if err := logger.Init(""); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()

	_ = godotenv.Load()

	token := os.Getenv("DISCORD_BOT_TOKEN")
	clientID := os.Getenv("CLIENT_ID")
	if token == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}
	if clientID == "" {
		log.Fatal("CLIENT_ID is required")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	var wanted []*discordgo.ApplicationCommand
	if !*contextOnly {
		wanted = append(wanted, slashCommands()...)
	}
	if !*slashOnly {
		wanted = append(wanted, contextCommands()...)
	}

	existing, err := dg.ApplicationCommands(clientID, "")
	if err != nil {
		log.Fatal("Failed to list existing commands", zap.Error(err))
	}

	for _, cmd := range wanted {
		if err := upsert(dg, clientID, existing, cmd); err != nil {
			log.Fatal("Failed to register command",
				zap.String("name", cmd.Name),
				zap.Error(err),
			)
		}
		log.Info("Registered command",
			zap.String("name", cmd.Name),
			zap.Uint8("type", uint8(cmd.Type)),
		)
	}
}

// upsert updates an existing global command with the same name and type,
// or creates it.
func upsert(dg *discordgo.Session, appID string, existing []*discordgo.ApplicationCommand, cmd *discordgo.ApplicationCommand) error {
	for _, found := range existing {
		if found.Name == cmd.Name && found.Type == cmd.Type {
			_, err := dg.ApplicationCommandEdit(appID, "", found.ID, cmd)
			return err
		}
	}
	_, err := dg.ApplicationCommandCreate(appID, "", cmd)
	return err
}
