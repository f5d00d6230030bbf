package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/models"
)

// Command names.
const (
	CmdAddBill      = "addbill"
	CmdCheck        = "check"
	CmdSubscription = "subscription"
	CmdReset        = "reset"
	CmdPaid         = "paid"
	CmdProfile      = "profile"
)

func typeOption(description string) *discordgo.ApplicationCommandOption {
	opt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "type",
		Description: description,
		Required:    true,
	}
	for _, l := range models.Ledgers() {
		opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  l.Emoji + " " + l.Name,
			Value: l.Type,
		})
	}
	return opt
}

// Definitions returns the slash commands the bot serves.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CmdAddBill,
			Description: "Add a bill payment record",
			Options: []*discordgo.ApplicationCommandOption{
				typeOption("Type of subscription"),
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "nominal",
					Description: "Payment amount",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "proof",
					Description: "Payment proof image",
					Required:    true,
				},
			},
		},
		{
			Name:        CmdCheck,
			Description: "Check subscription status",
			Options:     []*discordgo.ApplicationCommandOption{typeOption("Type of subscription to check")},
		},
		{
			Name:        CmdSubscription,
			Description: "View subscription data",
			Options:     []*discordgo.ApplicationCommandOption{typeOption("Type of subscription")},
		},
		{
			Name:        CmdReset,
			Description: "Reset subscription data (requires password)",
			Options: []*discordgo.ApplicationCommandOption{
				typeOption("Type of subscription to reset"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "password",
					Description: "Admin password",
					Required:    true,
				},
			},
		},
		{
			Name:        CmdPaid,
			Description: "Confirm you paid your share",
			Options:     []*discordgo.ApplicationCommandOption{typeOption("Type of subscription")},
		},
		{
			Name:        CmdProfile,
			Description: "Show your profile",
		},
	}
}
