package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"willybot/internal/automation"
	"willybot/internal/command"
	"willybot/internal/config"
	"willybot/internal/discord"
	"willybot/internal/moderation"
	"willybot/internal/observability"
	"willybot/internal/status"
	"willybot/internal/tts"
	"willybot/internal/voice"
	"willybot/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting WillyBot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	metrics := observability.NewMetrics("willybot")

	// Voice stack
	registry := voice.NewRegistry()
	ttsClient := tts.NewElevenLabsClient(tts.ElevenLabsConfig{
		APIKey:       cfg.ElevenLabsAPIKey,
		VoiceID:      cfg.ElevenLabsVoiceID,
		ModelID:      cfg.ElevenLabsModelID,
		OutputFormat: cfg.ElevenLabsOutputFormat,
	}, logger.Named("tts"))
	joiner := voice.NewSessionJoiner(dg, logger.Named("voice"))
	voiceManager := voice.NewManager(registry, ttsClient, joiner, logger.Named("voice"), metrics)

	// Command surface
	forwarder := automation.NewForwarder(cfg.WebhookURL, cfg.WebhookSecret, logger.Named("automation"), metrics)
	isolator := moderation.NewIsolator(dg, cfg.AislarDuration, logger.Named("moderation"))
	handler := discord.NewHandler(
		forwarder,
		voiceManager,
		isolator,
		func(guildID, userID string) (string, bool) {
			return voice.ResolveVoiceChannel(dg, guildID, userID)
		},
		logger.Named("discord"),
	)

	router := command.NewRouter(logger.Named("router"), metrics)
	handler.RegisterAll(router)

	// Each interaction runs as its own unit of work so a long TTS
	// playback never blocks other commands
	dg.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		go router.Handle(s, ic)
	})

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Logged in", zap.String("user", r.User.Username+"#"+r.User.Discriminator))
	})

	// Guilds for interactions, GuildVoiceStates for voice connections
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	log.Info("WillyBot is running. Press CTRL-C to exit.")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	statusServer := status.New(registry, logger.Named("status"), cfg.IsProduction())
	g.Go(func() error {
		log.Info("Status server listening", zap.String("addr", cfg.StatusAddr))
		return statusServer.Run(gctx, cfg.StatusAddr)
	})

	if err := g.Wait(); err != nil {
		log.Error("Shutdown with error", zap.Error(err))
	}

	log.Info("Shutting down WillyBot...")
}
