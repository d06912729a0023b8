package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NgigiN/smswallet/internal/analytics"
	"github.com/NgigiN/smswallet/internal/category"
	"github.com/NgigiN/smswallet/internal/config"
	"github.com/NgigiN/smswallet/internal/ingest"
	"github.com/NgigiN/smswallet/internal/ledger"
	"github.com/NgigiN/smswallet/internal/sms"
	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// commandTimeout bounds the store work behind one chat message.
const commandTimeout = 30 * time.Second

// Services are the application pieces the bot drives.
type Services struct {
	DB       *storage.Database
	Pipeline *ingest.Pipeline
	Engine   *analytics.Engine
	Ledger   *ledger.Service
}

type Bot struct {
	session       *discordgo.Session
	svc           Services
	channelID     string
	defaultSender string
	healthAddr    string
	loc           *time.Location
	log           zerolog.Logger
	startTime     time.Time
	health        *http.Server
}

func NewBot(cfg *config.Config, svc Services, log zerolog.Logger) (*Bot, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, err
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	bot := &Bot{
		session:       session,
		svc:           svc,
		channelID:     cfg.DiscordChannelId,
		defaultSender: cfg.DefaultSender,
		healthAddr:    cfg.HealthAddr,
		loc:           time.Local,
		log:           log.With().Str("component", "discord").Logger(),
		startTime:     time.Now(),
	}

	session.AddHandler(bot.handleMessage)
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	b.health = b.startHealthServer(b.healthAddr)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	b.log.Info().Str("channel", b.channelID).Msg("connected to Discord")
	return nil
}

func (b *Bot) Stop(ctx context.Context) {
	if b.health != nil {
		if err := b.health.Shutdown(ctx); err != nil {
			b.log.Warn().Err(err).Msg("health server shutdown")
		}
	}
	if err := b.session.Close(); err != nil {
		b.log.Warn().Err(err).Msg("closing Discord session")
	}
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return //bot's messages
	}
	if m.ChannelID != b.channelID {
		return //specific to the channel
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	reply := b.respond(ctx, m.Content, m.Timestamp)
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		b.log.Error().Err(err).Msg("failed to send reply")
	}
}

// respond returns the reply for one channel post.
func (b *Bot) respond(ctx context.Context, content string, postedAt time.Time) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if strings.HasPrefix(content, "!") {
		return b.handleCommand(ctx, content)
	}
	return b.handlePaste(ctx, content, postedAt)
}

func (b *Bot) handleCommand(ctx context.Context, content string) string {
	firstLine, rest, _ := strings.Cut(content, "\n")
	args := strings.Fields(firstLine)

	switch strings.ToLower(args[0]) {
	case "!summary":
		return b.summaryCommand(ctx, args[1:])
	case "!budgets":
		return b.budgetsCommand(ctx)
	case "!budget":
		return b.setBudgetCommand(ctx, args[1:])
	case "!unbudget":
		return b.unbudgetCommand(ctx, args[1:])
	case "!trends":
		return b.trendsCommand(ctx, args[1:])
	case "!add":
		return b.addCommand(ctx, args[1:], strings.Split(rest, "\n"))
	case "!learn":
		return b.learnCommand(ctx, args[1:])
	case "!rule":
		return b.ruleCommand(ctx, args[1:])
	case "!resetrules":
		return b.resetRulesCommand(ctx)
	case "!help":
		return helpText
	default:
		return fmt.Sprintf("Unknown command %s. Try !help", args[0])
	}
}

// handlePaste ingests every SMS in the post. Messages that are not payments or that
// were already tracked are reported, never treated as failures.
func (b *Bot) handlePaste(ctx context.Context, content string, postedAt time.Time) string {
	pasted := splitMessages(content)
	if len(pasted) == 0 {
		return "No message content provided"
	}

	var lines []string
	for i, p := range pasted {
		sender := p.Sender
		if sender == "" {
			sender = b.defaultSender
		}
		msg := sms.Message{Sender: sender, Body: p.Body, ReceivedAt: postedAt}

		res, err := b.svc.Pipeline.Ingest(ctx, msg,
			ingest.WithCategory(category.Normalize(p.Category)),
			ingest.WithNotes(p.Notes))
		if err != nil {
			b.log.Error().Err(err).Int("message", i+1).Msg("failed to ingest pasted message")
			lines = append(lines, "Failed to save transaction")
			continue
		}
		lines = append(lines, formatIngest(res))
	}

	if len(lines) == 1 {
		return lines[0]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 **Batch Processing Complete** (%d messages)\n", len(lines))
	for i, l := range lines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, l)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (b *Bot) summaryCommand(ctx context.Context, args []string) string {
	if len(args) == 0 {
		stats, err := b.svc.Engine.Statistics(ctx)
		if err != nil {
			return b.failure("get summary", err)
		}
		return formatStatistics(stats)
	}

	cat := category.Normalize(strings.Join(args, " "))
	txs, err := b.svc.DB.GetTransactionsByCategory(ctx, cat)
	if err != nil {
		return b.failure("get transactions", err)
	}
	return formatCategoryTransactions(cat, txs, b.loc)
}

func (b *Bot) budgetsCommand(ctx context.Context) string {
	budgets, err := b.svc.Engine.BudgetsWithSpending(ctx)
	if err != nil {
		return b.failure("get budgets", err)
	}
	return formatBudgets(budgets)
}

func (b *Bot) setBudgetCommand(ctx context.Context, args []string) string {
	const usage = "Usage: !budget <category> <limit> [monthly|weekly] [threshold]"
	if len(args) < 2 {
		return usage
	}
	limit, err := decimal.NewFromString(strings.ReplaceAll(args[1], ",", ""))
	if err != nil {
		return usage
	}
	in := ledger.BudgetInput{Category: args[0], Limit: limit}
	if len(args) > 2 {
		in.Period = storage.Period(args[2])
	}
	if len(args) > 3 {
		if in.AlertThreshold, err = strconv.ParseFloat(args[3], 64); err != nil {
			return usage
		}
	}

	budget, err := b.svc.Ledger.SaveBudget(ctx, in)
	if err != nil {
		return b.failure("save budget", err)
	}
	return fmt.Sprintf("Budget set: %s %s per %s (alert at %s)",
		budget.Category, money(budget.LimitAmount), periodNoun(budget.Period), percent(budget.AlertThreshold))
}

func periodNoun(p storage.Period) string {
	if p == storage.PeriodWeekly {
		return "week"
	}
	return "month"
}

func (b *Bot) unbudgetCommand(ctx context.Context, args []string) string {
	id, ok := parseID(args)
	if !ok {
		return "Usage: !unbudget <id>"
	}
	if err := b.svc.Ledger.DeleteBudget(ctx, id); err != nil {
		return b.failure("remove budget", err)
	}
	return fmt.Sprintf("Budget #%d removed", id)
}

func (b *Bot) trendsCommand(ctx context.Context, args []string) string {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	period, err := analytics.ParseTrendPeriod(arg)
	if err != nil {
		return err.Error()
	}
	trends, err := b.svc.Engine.Trends(ctx, period)
	if err != nil {
		return b.failure("get trends", err)
	}
	return formatTrends(trends)
}

func (b *Bot) addCommand(ctx context.Context, args, metadata []string) string {
	const usage = "Usage: !add <amount> <recipient>"
	if len(args) < 2 {
		return usage
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(args[0], ",", ""))
	if err != nil {
		return usage
	}
	_, cat, reason := parseMetadata(metadata)

	tx, err := b.svc.Ledger.AddTransaction(ctx, ledger.ManualEntry{
		Amount:    amount,
		Recipient: strings.Join(args[1:], " "),
		Direction: storage.DirectionSent,
		Category:  cat,
		Notes:     reason,
	})
	if err != nil {
		return b.failure("add transaction", err)
	}
	return formatIngest(ingest.Result{Outcome: ingest.Inserted, Transaction: tx})
}

func (b *Bot) learnCommand(ctx context.Context, args []string) string {
	id, ok := parseID(args)
	if !ok || len(args) < 2 {
		return "Usage: !learn <transaction id> <category>"
	}
	rule, err := b.svc.Ledger.SaveRuleFromTransaction(ctx, id, strings.Join(args[1:], " "))
	if err != nil {
		return b.failure("save rule", err)
	}
	return fmt.Sprintf("Transaction #%d moved to %s. Recipients containing %q will be too.", id, rule.Category, rule.Keyword)
}

func (b *Bot) ruleCommand(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "Usage: !rule <keyword> <category>"
	}
	rule, err := b.svc.Ledger.SaveRule(ctx, args[0], strings.Join(args[1:], " "), "")
	if err != nil {
		return b.failure("save rule", err)
	}
	return fmt.Sprintf("Rule added: %q → %s", rule.Keyword, rule.Category)
}

func (b *Bot) resetRulesCommand(ctx context.Context) string {
	if err := b.svc.Ledger.ResetRules(ctx); err != nil {
		return b.failure("reset rules", err)
	}
	return "Rules reset to defaults"
}

func parseID(args []string) (uint, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// failure turns an error into a reply. Validation messages are shown as is; anything
// else is logged and summarised.
func (b *Bot) failure(action string, err error) string {
	var ve *ledger.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Sprintf("Failed to %s: not found", action)
	}
	b.log.Error().Err(err).Str("action", action).Msg("command failed")
	return fmt.Sprintf("Failed to %s", action)
}
