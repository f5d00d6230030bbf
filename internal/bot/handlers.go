package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/subscription-billing-bot/internal/failure"
	"github.com/sheikh-saqib/subscription-billing-bot/internal/models"
)

// LedgerService is what the command handlers need from the ledger.
type LedgerService interface {
	AddBill(ctx context.Context, lg models.Ledger, amount decimal.Decimal, by string) (models.LedgerEntry, error)
	AddPayment(ctx context.Context, lg models.Ledger, column string, by string) (models.LedgerEntry, error)
	PaymentColumn(username string) string
	CheckBill(ctx context.Context, lg models.Ledger, username string) (string, error)
	View(ctx context.Context, lg models.Ledger) ([][]string, error)
	Reset(ctx context.Context, lg models.Ledger, password string, by string) ([]string, error)
}

// User is the member who invoked a command.
type User struct {
	ID         string
	Username   string
	GlobalName string
	Nickname   string
	Bot        bool
	AvatarURL  string
	CreatedAt  time.Time
}

// Attachment is a file passed as a command option.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

// Request is one slash-command invocation, independent of the transport.
type Request struct {
	Command string
	Options map[string]any // string, float64 or *Attachment
	User    User
}

func (r Request) str(name string) string {
	s, _ := r.Options[name].(string)
	return s
}

// Response is what the bot answers with. Exactly one of Content or Embed is set.
type Response struct {
	Content   string
	Embed     *discordgo.MessageEmbed
	Ephemeral bool
}

const (
	colorSuccess = 0x00FF00
	colorReset   = 0xFF6B6B
)

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Handlers implements the bot's slash commands.
type Handlers struct {
	ledger  LedgerService
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewHandlers creates the command handlers. A zero timeout disables the
// per-command deadline.
func NewHandlers(ledger LedgerService, logger *zap.Logger, timeout time.Duration) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		ledger:  ledger,
		logger:  logger.Named("bot"),
		timeout: timeout,
		now:     time.Now,
	}
}

// Ephemeral reports whether replies to command are only shown to the caller.
func Ephemeral(command string) bool {
	return command == CmdReset
}

// Handle runs one command and returns the reply. It never fails: errors
// become user-facing messages.
func (h *Handlers) Handle(ctx context.Context, req Request) Response {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	var resp Response
	switch req.Command {
	case CmdAddBill:
		resp = h.addBill(ctx, req)
	case CmdCheck:
		resp = h.check(ctx, req)
	case CmdSubscription:
		resp = h.subscription(ctx, req)
	case CmdReset:
		resp = h.reset(ctx, req)
	case CmdPaid:
		resp = h.paid(ctx, req)
	case CmdProfile:
		resp = h.profile(req)
	default:
		resp = Response{Content: fmt.Sprintf("❌ Unknown command %q.", req.Command)}
	}
	resp.Ephemeral = Ephemeral(req.Command)
	return resp
}

func (h *Handlers) ledgerFor(req Request) (models.Ledger, *Response) {
	lg, err := models.LookupLedger(req.str("type"))
	if err != nil {
		return models.Ledger{}, &Response{Content: "❌ Unknown subscription type. Choose google, vps or domain."}
	}
	return lg, nil
}

func (h *Handlers) addBill(ctx context.Context, req Request) Response {
	lg, bad := h.ledgerFor(req)
	if bad != nil {
		return *bad
	}
	nominal, ok := req.Options["nominal"].(float64)
	if !ok {
		return Response{Content: "❌ Please provide a numeric payment amount."}
	}
	proof, _ := req.Options["proof"].(*Attachment)
	if proof == nil || !isImage(proof.ContentType) {
		return Response{Content: "❌ Please upload a valid image file (PNG, JPG, GIF, or WebP)."}
	}

	amount := decimal.NewFromFloat(nominal)
	entry, err := h.ledger.AddBill(ctx, lg, amount, req.User.Username)
	if err != nil {
		h.logger.Error("addbill failed", zap.String("sheet", lg.Sheet), zap.Error(err))
		return Response{Content: errorMessage(err, lg, true, "❌ An error occurred while recording the payment.")}
	}

	return Response{Embed: &discordgo.MessageEmbed{
		Color:       colorSuccess,
		Title:       "✅ Bill Payment Recorded",
		Description: "Your payment has been successfully recorded!",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📋 Type", Value: lg.Name, Inline: true},
			{Name: "💰 Amount", Value: formatRupiah(amount), Inline: true},
			{Name: "📅 Date", Value: entry.Date, Inline: true},
			{Name: "📍 Row", Value: fmt.Sprintf("Row %d", entry.Row), Inline: true},
		},
		Image:     &discordgo.MessageEmbedImage{URL: proof.URL},
		Timestamp: h.now().Format(time.RFC3339),
		Footer:    footer("Added by", req.User),
	}}
}

func (h *Handlers) check(ctx context.Context, req Request) Response {
	lg, bad := h.ledgerFor(req)
	if bad != nil {
		return *bad
	}

	value, err := h.ledger.CheckBill(ctx, lg, req.User.Username)
	if err != nil {
		h.logger.Error("check failed", zap.String("sheet", lg.Sheet), zap.Error(err))
		return Response{Content: errorMessage(err, lg, false, "❌ An error occurred while fetching data.")}
	}

	return Response{Embed: &discordgo.MessageEmbed{
		Color:       lg.Color,
		Title:       fmt.Sprintf("%s %s Subscription", lg.Emoji, lg.Name),
		Description: fmt.Sprintf("Your bill is **%s**", value),
		Timestamp:   h.now().Format(time.RFC3339),
		Footer:      footer("Requested by", req.User),
	}}
}

func (h *Handlers) subscription(ctx context.Context, req Request) Response {
	lg, bad := h.ledgerFor(req)
	if bad != nil {
		return *bad
	}

	rows, err := h.ledger.View(ctx, lg)
	if err != nil {
		h.logger.Error("subscription failed", zap.String("sheet", lg.Sheet), zap.Error(err))
		return Response{Content: errorMessage(err, lg, false, "❌ An error occurred while fetching data.")}
	}
	if len(rows) == 0 {
		return Response{Content: fmt.Sprintf("❌ No data found in %s sheet.", lg.Name)}
	}

	return Response{Embed: &discordgo.MessageEmbed{
		Color:       lg.Color,
		Title:       fmt.Sprintf("%s %s Subscription", lg.Emoji, lg.Name),
		Description: renderTable(rows),
		Timestamp:   h.now().Format(time.RFC3339),
		Footer:      footer("Requested by", req.User),
	}}
}

func (h *Handlers) reset(ctx context.Context, req Request) Response {
	lg, bad := h.ledgerFor(req)
	if bad != nil {
		return *bad
	}

	cleared, err := h.ledger.Reset(ctx, lg, req.str("password"), req.User.Username)
	if err != nil {
		if !failure.Is(err, failure.ValidationFailed) {
			h.logger.Error("reset failed", zap.String("sheet", lg.Sheet), zap.Error(err))
		}
		return Response{Content: errorMessage(err, lg, true, "❌ An error occurred while resetting data.")}
	}

	return Response{Embed: &discordgo.MessageEmbed{
		Color:       colorReset,
		Title:       "🗑️ Data Reset Complete",
		Description: fmt.Sprintf("%s subscription data has been reset.", lg.Name),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📋 Type", Value: lg.Name, Inline: true},
			{Name: "📍 Ranges Cleared", Value: strings.Join(cleared, ", "), Inline: true},
		},
		Timestamp: h.now().Format(time.RFC3339),
		Footer:    footer("Reset by", req.User),
	}}
}

func (h *Handlers) paid(ctx context.Context, req Request) Response {
	lg, bad := h.ledgerFor(req)
	if bad != nil {
		return *bad
	}

	column := h.ledger.PaymentColumn(req.User.Username)
	entry, err := h.ledger.AddPayment(ctx, lg, column, req.User.Username)
	if err != nil {
		h.logger.Error("paid failed", zap.String("sheet", lg.Sheet), zap.Error(err))
		return Response{Content: errorMessage(err, lg, true, "❌ An error occurred while recording the payment.")}
	}

	return Response{Embed: &discordgo.MessageEmbed{
		Color:       lg.Color,
		Title:       "✅ Payment Confirmed",
		Description: fmt.Sprintf("%s payment stamped for %s.", lg.Name, req.User.Username),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📅 Date", Value: entry.Date, Inline: true},
			{Name: "📍 Cell", Value: models.Cell(entry.Column, entry.Row), Inline: true},
		},
		Timestamp: h.now().Format(time.RFC3339),
		Footer:    footer("Confirmed by", req.User),
	}}
}

func (h *Handlers) profile(req Request) Response {
	u := req.User
	display := u.GlobalName
	if display == "" {
		display = u.Username
	}
	isBot := "No"
	if u.Bot {
		isBot = "Yes"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "🆔 User ID", Value: "`" + u.ID + "`", Inline: true},
		{Name: "📛 Username", Value: "`" + u.Username + "`", Inline: true},
		{Name: "✨ Display Name", Value: "`" + display + "`", Inline: true},
		{Name: "🤖 Bot", Value: isBot, Inline: true},
	}
	if !u.CreatedAt.IsZero() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "📅 Account Created", Value: fmt.Sprintf("<t:%d:R>", u.CreatedAt.Unix()), Inline: true,
		})
	}
	if u.Nickname != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "🏠 Server Nickname", Value: "`" + u.Nickname + "`", Inline: true,
		})
	}

	return Response{Embed: &discordgo.MessageEmbed{
		Color:     0x5865F2,
		Title:     "👤 Your Profile",
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: u.AvatarURL},
		Fields:    fields,
		Timestamp: h.now().Format(time.RFC3339),
		Footer:    footer("Requested by", u),
	}}
}

// errorMessage turns a ledger error into the reply shown to the user.
func errorMessage(err error, lg models.Ledger, write bool, fallback string) string {
	switch failure.KindOf(err) {
	case failure.AccessDenied:
		if write {
			return "❌ Bot does not have write access to Google Sheet. Make sure the Service Account has Editor access."
		}
		return "❌ Bot does not have access to Google Sheet. Make sure the Service Account has been granted access."
	case failure.RangeNotFound:
		return fmt.Sprintf("❌ Sheet %q not found. Please create the sheet first.", lg.Sheet)
	case failure.CapacityExceeded, failure.ValidationFailed:
		return "❌ " + failure.Message(err)
	default:
		return fallback
	}
}

func footer(prefix string, u User) *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: prefix + " " + u.Username, IconURL: u.AvatarURL}
}

func isImage(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return imageTypes[strings.ToLower(strings.TrimSpace(mediaType))]
}
