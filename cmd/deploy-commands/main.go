package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/bot"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/config"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Discord.Token == "" || cfg.Discord.ClientID == "" {
		logger.Fatal("TOKEN and CLIENT_ID are required")
	}

	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Fatal("discord session", zap.Error(err))
	}

	logger.Info("deploying commands", zap.Int("count", len(bot.Definitions())), zap.String("guild", cfg.Discord.GuildID))
	registered, err := bot.RegisterCommands(s, cfg.Discord.ClientID, cfg.Discord.GuildID)
	if err != nil {
		logger.Fatal("failed to deploy commands", zap.Error(err))
	}
	for _, c := range registered {
		logger.Info("registered command", zap.String("name", c.Name), zap.String("id", c.ID))
	}
}
