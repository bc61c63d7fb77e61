package handler

import (
	"errors"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-bgcheck/internal/checker"
	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/logger"
)

var (
	globalConfig   *config.Config
	checkerService *checker.Checker
)

// Initialize wires the handlers to the checker service.
func Initialize(cfg *config.Config, svc *checker.Checker) {
	globalConfig = cfg
	checkerService = svc
}

// SetupMessageHandlers configures all bot message handlers
func SetupMessageHandlers(bh *th.BotHandler, bot *telego.Bot) {
	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		cmd, args := splitCommand(message.Text)
		switch cmd {
		case "/check":
			return handleCheckCommand(ctx, bot, message, args)
		case "/scan":
			return handleScanCommand(ctx, bot, message, args)
		case "/reload":
			return handleReloadCommand(ctx, bot, message)
		case "/help", "/start":
			return sendHelpMessage(ctx, bot, message)
		}
		return nil
	})
}

// splitCommand separates the command word from its argument text and strips
// the @botname suffix used in group chats.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, args, _ := strings.Cut(text, " ")
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	return cmd, strings.TrimSpace(args)
}

func handleCheckCommand(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	if args == "" {
		return sendMessage(ctx, bot, message.Chat.ID, "Usage: /check &lt;user id, @handle or name&gt;")
	}

	report, err := checkerService.ResolveAndEvaluate(ctx.Context(), args)
	if errors.Is(err, checker.ErrNotFound) {
		return sendMessage(ctx, bot, message.Chat.ID, "❌ Could not find a Roblox user matching <b>"+escapeHTML(args)+"</b>.")
	}
	if err != nil {
		logger.Errorf("Background check for %q failed: %v", args, err)
		return sendMessage(ctx, bot, message.Chat.ID, "❌ An error occurred while running the check.")
	}

	return sendLongMessage(ctx, bot, message.Chat.ID, renderReport(report))
}

func handleScanCommand(ctx *th.Context, bot *telego.Bot, message telego.Message, args string) error {
	if args == "" {
		return sendMessage(ctx, bot, message.Chat.ID, "Usage: /scan &lt;user id, @handle or name&gt;")
	}

	report, err := checkerService.ScanAssociates(ctx.Context(), args)
	if errors.Is(err, checker.ErrNotFound) {
		return sendMessage(ctx, bot, message.Chat.ID, "❌ Could not find a Roblox user matching <b>"+escapeHTML(args)+"</b>.")
	}
	if errors.Is(err, checker.ErrFetchFailed) {
		return sendMessage(ctx, bot, message.Chat.ID, "❌ Could not fetch the friend list. Try again later.")
	}
	if err != nil {
		logger.Errorf("Associate scan for %q failed: %v", args, err)
		return sendMessage(ctx, bot, message.Chat.ID, "❌ An error occurred while scanning.")
	}

	return sendLongMessage(ctx, bot, message.Chat.ID, renderScan(report))
}

func handleReloadCommand(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	results := checkerService.RefreshAll(ctx.Context())
	return sendMessage(ctx, bot, message.Chat.ID, renderRefresh(results))
}

// sendHelpMessage sends help information
func sendHelpMessage(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	helpText := "<b>Roblox Background Check Bot</b>\n\n" +
		"Checks a Roblox user against the blacklist sources and profile signals.\n\n" +
		"<b>Commands:</b>\n" +
		"/check &lt;id|@handle|name&gt; — run a full background check\n" +
		"/scan &lt;id|@handle|name&gt; — check a user's friends against the blacklists\n" +
		"/reload — reload all blacklist sources\n" +
		"/help — show this message"
	return sendMessage(ctx, bot, message.Chat.ID, helpText)
}

func sendMessage(ctx *th.Context, bot *telego.Bot, chatID int64, text string) error {
	_, err := bot.SendMessage(ctx.Context(), &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: "HTML",
	})
	return err
}

// sendLongMessage splits long reports across multiple messages.
func sendLongMessage(ctx *th.Context, bot *telego.Bot, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, messageLimit) {
		if err := sendMessage(ctx, bot, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}
