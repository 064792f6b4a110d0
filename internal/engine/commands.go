package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zeruxbrawl/zeruxbot/internal/moderation"
	"github.com/zeruxbrawl/zeruxbot/internal/session"
	"github.com/zeruxbrawl/zeruxbot/internal/store"
)

// command is one dispatchable entry: a handler plus its authorization
// requirement and usage line.
type command struct {
	handler   func(ctx context.Context, msg Inbound, args string)
	adminOnly bool
	usage     string
}

const unauthorizedReply = "You are not authorized to use this command."

// dispatch routes a leading-slash message to its handler. Authorization
// is checked before the handler runs, so an unauthorized invocation can
// never leave a partial mutation behind.
func (e *Engine) dispatch(ctx context.Context, msg Inbound) {
	name, args, _ := strings.Cut(msg.Text, " ")
	name = strings.ToLower(strings.SplitN(name, "@", 2)[0])
	args = strings.TrimSpace(args)

	cmd, ok := e.commands[name]
	if !ok {
		slog.Debug("unknown command ignored", "command", name, "actor", msg.ChatID)
		return
	}

	if cmd.adminOnly && !e.cfg.IsAdmin(msg.ChatID) {
		slog.Info("unauthorized command rejected", "command", name, "actor", msg.ChatID)
		e.send(ctx, msg.ChatID, unauthorizedReply)
		return
	}

	cmd.handler(ctx, msg, args)
}

func (e *Engine) commandTable() map[string]command {
	return map[string]command{
		"/start":        {handler: e.cmdStart},
		"/help":         {handler: e.cmdHelp},
		"/status":       {handler: e.cmdStatus},
		"/info":         {handler: e.cmdInfo},
		"/support":      {handler: e.cmdSupport},
		"/login":        {handler: e.cmdLogin},
		"/logout":       {handler: e.cmdLogout},
		"/profile":      {handler: e.cmdProfile},
		"/leaderboard":  {handler: e.cmdLeaderboard},
		"/rename":       {handler: e.cmdRename},
		"/theme":        {handler: e.cmdTheme},
		"/adminrequest": {handler: e.cmdAdminRequest},

		"/add_news":      {handler: e.cmdAddNews, adminOnly: true},
		"/ban_support":   {handler: e.cmdBanSupport, adminOnly: true, usage: "/ban_support <handle>"},
		"/unban_support": {handler: e.cmdUnbanSupport, adminOnly: true, usage: "/unban_support <handle>"},
		"/mute_support":  {handler: e.cmdMuteSupport, adminOnly: true, usage: "/mute_support <handle> <minutes>"},

		"/resetaccdata": {handler: e.cmdResetAccData, adminOnly: true},
		"/resetgems":    {handler: e.cmdResetGems, adminOnly: true, usage: "/resetgems <account name>"},
		"/reset":        {handler: e.cmdReset, adminOnly: true, usage: "/reset <account name>"},
		"/addgems":      {handler: e.cmdAddGems, adminOnly: true, usage: "/addgems <account name> <amount>"},
		"/addgold":      {handler: e.cmdAddGold, adminOnly: true, usage: "/addgold <account name> <amount>"},
		"/addtrophy":    {handler: e.cmdAddTrophy, adminOnly: true, usage: "/addtrophy <account name> <amount>"},
		"/resetclubs":   {handler: e.cmdResetClubs, adminOnly: true},
		"/resetall":     {handler: e.cmdResetAll, adminOnly: true},
	}
}

func (e *Engine) cmdStart(ctx context.Context, msg Inbound, _ string) {
	e.send(ctx, msg.ChatID, "Welcome to Zerux Brawl Bot! Use /help to view available commands.")
}

func (e *Engine) cmdHelp(ctx context.Context, msg Inbound, _ string) {
	helpText := "Available Commands:\n" +
		"/status - Show server system stats\n" +
		"/info - Get information about Zerux Brawl with images\n" +
		"/support - Contact the support team\n" +
		"/login - Login with your account name\n" +
		"/profile - View your profile (requires login)\n" +
		"/logout - Log out of your account\n" +
		"/leaderboard - View trophy leaderboard\n" +
		"/rename - Rename your account\n" +
		"/theme - Choose a client theme\n" +
		"/adminrequest - Request admin application\n\n" +
		"Admin Commands:\n" +
		"/resetaccdata - Full account database reset\n" +
		"/resetgems <account name> - Reset gems to 0\n" +
		"/reset <account name> - Reset gold, gems, trophies to 0\n" +
		"/addgems <account name> <amount> - Set gems to a specific value\n" +
		"/addgold <account name> <amount> - Set gold to a specific value\n" +
		"/addtrophy <account name> <amount> - Set trophies to a specific value\n" +
		"/resetclubs - Reset club-related files\n" +
		"/resetall - Full database reset (Clubs & Player)\n" +
		"/add_news - Send news update to all users\n" +
		"/ban_support <handle> - Ban a user from support\n" +
		"/unban_support <handle> - Unban a user from support\n" +
		"/mute_support <handle> <minutes> - Mute a user in support"
	e.send(ctx, msg.ChatID, helpText)
}

func (e *Engine) cmdStatus(ctx context.Context, msg Inbound, _ string) {
	e.send(ctx, msg.ChatID, "🖥 Server Status:\n"+e.statsFn())
}

func (e *Engine) cmdInfo(ctx context.Context, msg Inbound, _ string) {
	info := e.cfg.Info
	infoText := "Zerux Brawl is a private Brawl Stars server with custom mods and features!\n" +
		"Join our community and have fun with exclusive content!\n\n" +
		fmt.Sprintf("Bot Version: %s\n", orUnknown(info.BotVersion)) +
		fmt.Sprintf("Server Version: %s\n", orUnknown(info.ServerVersion)) +
		fmt.Sprintf("Game Version: %s\n", orUnknown(info.GameVersion)) +
		fmt.Sprintf("Changelog: %s", orDefault(info.Changelog, "No changelog available"))

	switch len(info.Images) {
	case 0:
		e.send(ctx, msg.ChatID, infoText)
	case 1:
		if err := e.transport.SendPhoto(ctx, msg.ChatID, info.Images[0], infoText); err != nil {
			slog.Warn("info photo failed", "error", err)
			e.send(ctx, msg.ChatID, infoText)
		}
	default:
		if err := e.transport.SendMediaGroup(ctx, msg.ChatID, info.Images, infoText); err != nil {
			slog.Warn("info media group failed", "error", err)
			e.send(ctx, msg.ChatID, infoText)
		}
	}
}

func orUnknown(s string) string { return orDefault(s, "Unknown") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (e *Engine) cmdLogin(ctx context.Context, msg Inbound, _ string) {
	if err := e.sessions.Open(msg.ChatID, session.StageAwaitingLogin); err != nil {
		e.send(ctx, msg.ChatID, "You already have another action in progress. Finish it first.")
		return
	}
	e.send(ctx, msg.ChatID, "Please enter your account name:")
}

func (e *Engine) cmdLogout(ctx context.Context, msg Inbound, _ string) {
	if e.unbindAccount(msg.ChatID) {
		e.send(ctx, msg.ChatID, "You have been logged out successfully.")
	} else {
		e.send(ctx, msg.ChatID, "You are not currently logged in.")
	}
}

func (e *Engine) cmdProfile(ctx context.Context, msg Inbound, _ string) {
	name, ok := e.boundAccount(msg.ChatID)
	if !ok {
		e.send(ctx, msg.ChatID, "Please log in first using /login.")
		return
	}
	acct, found := e.accounts.FindByName(name)
	if !found {
		e.send(ctx, msg.ChatID, "Your account no longer exists. Please log in again using /login.")
		e.unbindAccount(msg.ChatID)
		return
	}
	profile := fmt.Sprintf(
		"🎮 Profile:\n"+
			"🏆 Trophies: %d (Max: %d)\n"+
			"🎖️ Solo Wins: %d\n"+
			"🤝 Duo Wins: %d\n"+
			"⚔️ 3v3 Wins: %d\n"+
			"💎 Gems: %d\n"+
			"💰 Gold: %d",
		acct.Trophies, acct.HighestTrophies, acct.SoloWins, acct.DuoWins, acct.TrioWins, acct.Gems, acct.Gold)
	e.send(ctx, msg.ChatID, profile)
}

func (e *Engine) cmdLeaderboard(ctx context.Context, msg Inbound, _ string) {
	top := e.accounts.Top(10)
	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard (by trophies):\n")
	for i, acct := range top {
		fmt.Fprintf(&sb, "%d. %s - %d trophies\n", i+1, acct.Name, acct.Trophies)
	}
	e.send(ctx, msg.ChatID, sb.String())
}

func (e *Engine) cmdRename(ctx context.Context, msg Inbound, _ string) {
	if err := e.sessions.Open(msg.ChatID, session.StageAwaitingRenameCurrent); err != nil {
		e.send(ctx, msg.ChatID, "You already have another action in progress. Finish it first.")
		return
	}
	e.send(ctx, msg.ChatID, "Please enter your current account name:")
}

func (e *Engine) cmdTheme(ctx context.Context, msg Inbound, _ string) {
	if _, ok := e.boundAccount(msg.ChatID); !ok {
		e.send(ctx, msg.ChatID, "Please log in first using /login.")
		return
	}
	if err := e.sessions.Open(msg.ChatID, session.StageAwaitingThemeSelection); err != nil {
		e.send(ctx, msg.ChatID, "You already have another action in progress. Finish it first.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Available themes:\n")
	for _, t := range e.cfg.Themes {
		fmt.Fprintf(&sb, "%d - %s\n", t.ID, t.Name)
	}
	sb.WriteString("Reply with the theme number:")
	e.send(ctx, msg.ChatID, sb.String())
}

func (e *Engine) cmdSupport(ctx context.Context, msg Inbound, _ string) {
	if !e.gateAllows(ctx, msg) {
		return
	}
	if err := e.sessions.Open(msg.ChatID, session.StageAwaitingSupportMessage); err != nil {
		e.send(ctx, msg.ChatID, "You already have another action in progress. Finish it first.")
		return
	}
	e.send(ctx, msg.ChatID, "Please enter your support message to send to the developer team:")
}

const adminRequestBriefing = "--------Message Expectations--------\n\n" +
	"Name or Nickname\n" +
	"Age\n" +
	"For what do you need admin?\n" +
	"Do you have previous Developing Experience?\n" +
	"Do you have previous Modding Experience?\n" +
	"Have you been a developer back then?\n" +
	"Telegram user id (can be get with @userinfobot) - REQUIRED\n" +
	"Your Telegram @ - (optional) so we can add you to our developer groups\n\n" +
	"--------Admin Rules--------\n\n" +
	"Be respectful to other people\n" +
	"Do not leak things from our Developer channel\n" +
	"Do not mess with the server unless allowed\n" +
	"Actually be able to help us with something"

func (e *Engine) cmdAdminRequest(ctx context.Context, msg Inbound, _ string) {
	if !e.gateAllows(ctx, msg) {
		return
	}
	if err := e.sessions.Open(msg.ChatID, session.StageAwaitingAdminRequest); err != nil {
		e.send(ctx, msg.ChatID, "You already have another action in progress. Finish it first.")
		return
	}
	e.send(ctx, msg.ChatID, adminRequestBriefing)
	e.send(ctx, msg.ChatID, "Please enter your admin application to send to the developer team:")
}

// gateAllows checks the moderation gate and reports the denial reason to
// the actor when relay access is blocked.
func (e *Engine) gateAllows(ctx context.Context, msg Inbound) bool {
	allowed, reason := e.gate.Allowed(msg.ChatID)
	if allowed {
		return true
	}
	if reason.Banned {
		e.send(ctx, msg.ChatID, "You are banned from contacting support.")
	} else {
		e.send(ctx, msg.ChatID, fmt.Sprintf("You are muted. Try again in %s.", reason.MutedFor.Round(time.Second)))
	}
	return false
}

func (e *Engine) cmdAddNews(ctx context.Context, msg Inbound, _ string) {
	if err := e.sessions.Open(msg.ChatID, session.StageAwaitingNewsBody); err != nil {
		e.send(ctx, msg.ChatID, "You already have another action in progress. Finish it first.")
		return
	}
	e.send(ctx, msg.ChatID, "Please enter the news message to send to all users:")
}

func (e *Engine) cmdBanSupport(ctx context.Context, msg Inbound, args string) {
	handle := strings.TrimSpace(args)
	if handle == "" {
		e.send(ctx, msg.ChatID, "Usage: /ban_support <handle>")
		return
	}
	already, err := e.gate.Ban(handle)
	switch {
	case errors.Is(err, moderation.ErrUnknownHandle):
		e.send(ctx, msg.ChatID, fmt.Sprintf("No user with handle '%s' has messaged the bot.", handle))
	case err != nil:
		slog.Error("ban failed", "handle", handle, "error", err)
		e.send(ctx, msg.ChatID, "Failed to save the ban list. Please try again.")
	case already:
		e.send(ctx, msg.ChatID, fmt.Sprintf("'%s' is already banned from support.", handle))
	default:
		e.send(ctx, msg.ChatID, fmt.Sprintf("'%s' has been banned from support.", handle))
	}
}

func (e *Engine) cmdUnbanSupport(ctx context.Context, msg Inbound, args string) {
	handle := strings.TrimSpace(args)
	if handle == "" {
		e.send(ctx, msg.ChatID, "Usage: /unban_support <handle>")
		return
	}
	already, err := e.gate.Unban(handle)
	switch {
	case errors.Is(err, moderation.ErrUnknownHandle):
		e.send(ctx, msg.ChatID, fmt.Sprintf("No user with handle '%s' has messaged the bot.", handle))
	case err != nil:
		slog.Error("unban failed", "handle", handle, "error", err)
		e.send(ctx, msg.ChatID, "Failed to save the ban list. Please try again.")
	case already:
		e.send(ctx, msg.ChatID, fmt.Sprintf("'%s' is not banned from support.", handle))
	default:
		e.send(ctx, msg.ChatID, fmt.Sprintf("'%s' has been unbanned from support.", handle))
	}
}

func (e *Engine) cmdMuteSupport(ctx context.Context, msg Inbound, args string) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		e.send(ctx, msg.ChatID, "Usage: /mute_support <handle> <minutes>")
		return
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes <= 0 {
		e.send(ctx, msg.ChatID, "Minutes must be a positive integer.")
		return
	}
	if err := e.gate.MuteHandle(parts[0], time.Duration(minutes)*time.Minute); err != nil {
		e.send(ctx, msg.ChatID, fmt.Sprintf("No user with handle '%s' has messaged the bot.", parts[0]))
		return
	}
	e.send(ctx, msg.ChatID, fmt.Sprintf("'%s' has been muted for %d minutes.", parts[0], minutes))
}

// --- account mutation commands ---

func (e *Engine) cmdResetAccData(ctx context.Context, msg Inbound, _ string) {
	err := e.accounts.ResetData()
	switch {
	case os.IsNotExist(err):
		e.send(ctx, msg.ChatID, "Accounts database file does not exist.")
	case err != nil:
		slog.Error("account reset failed", "error", err)
		e.send(ctx, msg.ChatID, fmt.Sprintf("Error resetting accounts database: %v", err))
	default:
		e.send(ctx, msg.ChatID, "Accounts database has been reset (accounts.json deleted).")
	}
}

func (e *Engine) cmdResetGems(ctx context.Context, msg Inbound, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		e.send(ctx, msg.ChatID, "Usage: /resetgems <account name>")
		return
	}
	e.mutateAccount(ctx, msg, name, func(a *store.Account) { a.Gems = 0 },
		fmt.Sprintf("Gems for account '%s' have been reset to 0.", name))
}

func (e *Engine) cmdReset(ctx context.Context, msg Inbound, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		e.send(ctx, msg.ChatID, "Usage: /reset <account name>")
		return
	}
	e.mutateAccount(ctx, msg, name, func(a *store.Account) {
		a.Gems = 0
		a.Gold = 0
		a.Trophies = 0
	}, fmt.Sprintf("Account '%s' has been reset (gems, gold, trophies set to 0).", name))
}

func (e *Engine) cmdAddGems(ctx context.Context, msg Inbound, args string) {
	name, amount, ok := splitNameAmount(args)
	if !ok {
		e.send(ctx, msg.ChatID, "Usage: /addgems <account name> <amount>")
		return
	}
	e.mutateAccount(ctx, msg, name, func(a *store.Account) { a.Gems = amount },
		fmt.Sprintf("Gems for account '%s' have been set to %d.", name, amount))
}

func (e *Engine) cmdAddGold(ctx context.Context, msg Inbound, args string) {
	name, amount, ok := splitNameAmount(args)
	if !ok {
		e.send(ctx, msg.ChatID, "Usage: /addgold <account name> <amount>")
		return
	}
	e.mutateAccount(ctx, msg, name, func(a *store.Account) { a.Gold = amount },
		fmt.Sprintf("Gold for account '%s' have been set to %d.", name, amount))
}

func (e *Engine) cmdAddTrophy(ctx context.Context, msg Inbound, args string) {
	name, amount, ok := splitNameAmount(args)
	if !ok {
		e.send(ctx, msg.ChatID, "Usage: /addtrophy <account name> <amount>")
		return
	}
	e.mutateAccount(ctx, msg, name, func(a *store.Account) {
		a.Trophies = amount
		if amount > a.HighestTrophies {
			a.HighestTrophies = amount
		}
	}, fmt.Sprintf("Trophies for account '%s' have been set to %d.", name, amount))
}

func (e *Engine) cmdResetClubs(ctx context.Context, msg Inbound, _ string) {
	if errs := e.accounts.ResetClubs(); len(errs) > 0 {
		e.send(ctx, msg.ChatID, joinErrors(errs))
		return
	}
	e.send(ctx, msg.ChatID, "Club related files have been reset successfully.")
}

func (e *Engine) cmdResetAll(ctx context.Context, msg Inbound, _ string) {
	if errs := e.accounts.ResetAll(); len(errs) > 0 {
		e.send(ctx, msg.ChatID, joinErrors(errs))
		return
	}
	e.send(ctx, msg.ChatID, "Full database has been reset (Clubs and Player directories removed).")
}

// mutateAccount applies fn to a single record matched by name and reports
// the outcome. A missing account is a no-op with a not-found reply.
func (e *Engine) mutateAccount(ctx context.Context, msg Inbound, name string, fn func(*store.Account), success string) {
	found, err := e.accounts.Update(name, fn)
	switch {
	case err != nil:
		slog.Error("account update failed", "account", name, "error", err)
		e.send(ctx, msg.ChatID, "Failed to save the account database. Please try again.")
	case !found:
		e.send(ctx, msg.ChatID, fmt.Sprintf("Account '%s' not found.", name))
	default:
		e.send(ctx, msg.ChatID, success)
	}
}

// splitNameAmount parses "<account name> <amount>" where the name may
// contain spaces; the last token is the amount.
func splitNameAmount(args string) (name string, amount int, ok bool) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return "", 0, false
	}
	amount, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", 0, false
	}
	return strings.Join(parts[:len(parts)-1], " "), amount, true
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}
