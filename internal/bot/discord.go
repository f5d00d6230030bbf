package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot connects Handlers to a Discord gateway session.
type Bot struct {
	session  *discordgo.Session
	handlers *Handlers
	logger   *zap.Logger
}

// New creates a Bot for token. The session is not opened until Open.
func New(token string, handlers *Handlers, logger *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{session: s, handlers: handlers, logger: logger.Named("discord")}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Open connects to the Discord gateway.
func (b *Bot) Open() error { return b.session.Open() }

// Close disconnects the gateway session.
func (b *Bot) Close() error { return b.session.Close() }

// RegisterCommands replaces the application's slash commands. An empty
// guildID registers them globally.
func RegisterCommands(s *discordgo.Session, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	return s.ApplicationCommandBulkOverwrite(appID, guildID, Definitions())
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("bot online",
		zap.String("user", r.User.Username),
		zap.String("invite", fmt.Sprintf(
			"https://discord.com/api/oauth2/authorize?client_id=%s&permissions=0&scope=bot%%20applications.commands", r.User.ID)))
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	req := requestFromInteraction(i)
	log := b.logger.With(zap.String("command", req.Command), zap.String("user", req.User.Username))

	var flags discordgo.MessageFlags
	if Ephemeral(req.Command) {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	if err != nil {
		log.Error("defer reply", zap.Error(err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("command panicked", zap.Any("panic", r))
			msg := "❌ An error occurred while executing this command!"
			_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &msg})
		}
	}()

	resp := b.handlers.Handle(context.Background(), req)
	if _, err := s.InteractionResponseEdit(i.Interaction, webhookEdit(resp)); err != nil {
		log.Error("edit reply", zap.Error(err))
	}
}

func webhookEdit(resp Response) *discordgo.WebhookEdit {
	content := resp.Content
	embeds := []*discordgo.MessageEmbed{}
	if resp.Embed != nil {
		embeds = append(embeds, resp.Embed)
	}
	return &discordgo.WebhookEdit{Content: &content, Embeds: &embeds}
}

// requestFromInteraction flattens a slash-command interaction into a Request.
func requestFromInteraction(i *discordgo.InteractionCreate) Request {
	data := i.ApplicationCommandData()
	req := Request{Command: data.Name, Options: map[string]any{}}

	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			req.Options[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionNumber:
			req.Options[opt.Name] = opt.FloatValue()
		case discordgo.ApplicationCommandOptionInteger:
			req.Options[opt.Name] = float64(opt.IntValue())
		case discordgo.ApplicationCommandOptionAttachment:
			id, _ := opt.Value.(string)
			if data.Resolved == nil {
				continue
			}
			if a, ok := data.Resolved.Attachments[id]; ok && a != nil {
				req.Options[opt.Name] = &Attachment{URL: a.URL, Filename: a.Filename, ContentType: a.ContentType}
			}
		}
	}

	var u *discordgo.User
	if i.Member != nil {
		u = i.Member.User
		req.User.Nickname = i.Member.Nick
	}
	if u == nil {
		u = i.User
	}
	if u != nil {
		req.User.ID = u.ID
		req.User.Username = u.Username
		req.User.GlobalName = u.GlobalName
		req.User.Bot = u.Bot
		req.User.AvatarURL = u.AvatarURL("")
		if created, err := discordgo.SnowflakeTimestamp(u.ID); err == nil {
			req.User.CreatedAt = created
		}
	}
	return req
}
