package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zeruxbrawl/zeruxbot/internal/session"
	"github.com/zeruxbrawl/zeruxbot/internal/store"
)

// handleStage consumes an inbound message as the answer to the actor's
// open session. The slot is already closed by Take; stages that chain
// (rename) reopen the next slot themselves.
func (e *Engine) handleStage(ctx context.Context, sess session.Session, msg Inbound) {
	switch sess.Stage {
	case session.StageAwaitingLogin:
		e.stageLogin(ctx, msg)
	case session.StageAwaitingSupportMessage:
		e.stageRelay(ctx, msg, "Support message")
	case session.StageAwaitingAdminRequest:
		e.stageRelay(ctx, msg, "Admin request")
	case session.StageAwaitingRenameCurrent:
		e.stageRenameCurrent(ctx, msg)
	case session.StageAwaitingRenameNew:
		e.stageRenameNew(ctx, sess, msg)
	case session.StageAwaitingThemeSelection:
		e.stageTheme(ctx, msg)
	case session.StageAwaitingNewsBody:
		e.stageNews(ctx, msg)
	default:
		slog.Warn("session with unknown stage dropped", "actor", sess.ActorID, "stage", sess.Stage)
	}
}

func (e *Engine) stageLogin(ctx context.Context, msg Inbound) {
	name := strings.TrimSpace(msg.Text)
	acct, found := e.accounts.FindByName(name)
	if !found {
		e.send(ctx, msg.ChatID, "Account not found. Please try again.")
		return
	}
	e.bindAccount(msg.ChatID, acct.Name)
	e.send(ctx, msg.ChatID, fmt.Sprintf("Logged in successfully! You have %d gems.", acct.Gems))
}

// stageRelay forwards a support message or admin application to the staff
// group and records the correlation so the eventual staff reply can be
// routed back.
func (e *Engine) stageRelay(ctx context.Context, msg Inbound, kind string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	ticket := uuid.NewString()[:8]
	handle := e.dir.Resolve(msg.ChatID)

	forward := fmt.Sprintf("%s received at: %s\nFrom: %s [#%s]\n\nMessage Content: \"%s\"",
		kind, timestamp, handle, ticket, msg.Text)

	forwardedID, err := e.transport.Send(ctx, e.cfg.Support.GroupID, forward)
	if err != nil {
		slog.Warn("relay forward failed", "actor", msg.ChatID, "error", err)
		e.reply(ctx, msg.ChatID, msg.MessageID, "Failed to send message. Please try again.")
		return
	}

	if err := e.ledger.Record(forwardedID, msg.ChatID); err != nil {
		slog.Error("relay ledger write failed", "message_id", forwardedID, "error", err)
	}

	if kind == "Admin request" {
		e.reply(ctx, msg.ChatID, msg.MessageID, "Your admin application has been sent to the developer team!")
	} else {
		e.reply(ctx, msg.ChatID, msg.MessageID, "Your message has been sent to the developer team!")
	}
}

func (e *Engine) stageRenameCurrent(ctx context.Context, msg Inbound) {
	current := strings.TrimSpace(msg.Text)
	if err := e.sessions.OpenWith(msg.ChatID, session.StageAwaitingRenameNew, current); err != nil {
		e.send(ctx, msg.ChatID, "You already have another action in progress. Finish it first.")
		return
	}
	e.send(ctx, msg.ChatID, "Please enter the new account name:")
}

func (e *Engine) stageRenameNew(ctx context.Context, sess session.Session, msg Inbound) {
	newName := strings.TrimSpace(msg.Text)
	current := sess.CurrentName

	if _, found := e.accounts.FindByName(current); !found {
		e.send(ctx, msg.ChatID, fmt.Sprintf("No account is named '%s'. Rename cancelled.", current))
		return
	}
	if newName == "" {
		e.send(ctx, msg.ChatID, "The new name cannot be empty. Rename cancelled.")
		return
	}
	if _, taken := e.accounts.FindByName(newName); taken {
		e.send(ctx, msg.ChatID, fmt.Sprintf("The name '%s' is already taken. Rename cancelled.", newName))
		return
	}

	found, err := e.accounts.Update(current, func(a *store.Account) { a.Name = newName })
	if err != nil {
		slog.Error("rename save failed", "account", current, "error", err)
		e.send(ctx, msg.ChatID, "Failed to save the account database. Please try again.")
		return
	}
	if !found {
		e.send(ctx, msg.ChatID, fmt.Sprintf("No account is named '%s'. Rename cancelled.", current))
		return
	}
	e.rebindAccount(current, newName)
	e.send(ctx, msg.ChatID, fmt.Sprintf("Account '%s' has been renamed to '%s'.", current, newName))
}

func (e *Engine) stageTheme(ctx context.Context, msg Inbound) {
	id, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil {
		e.send(ctx, msg.ChatID, "That is not a theme number. Use /theme to try again.")
		return
	}
	theme, ok := e.cfg.Theme(id)
	if !ok {
		e.send(ctx, msg.ChatID, "That theme does not exist. Use /theme to try again.")
		return
	}

	name, bound := e.boundAccount(msg.ChatID)
	if !bound {
		e.send(ctx, msg.ChatID, "Please log in first using /login.")
		return
	}
	found, err := e.accounts.Update(name, func(a *store.Account) { a.Theme = id })
	if err != nil || !found {
		slog.Warn("theme save failed", "account", name, "error", err)
		e.send(ctx, msg.ChatID, "Failed to save your theme. Please try again.")
		return
	}
	e.send(ctx, msg.ChatID, fmt.Sprintf("Theme set to %s.", theme.Name))
}

// stageNews broadcasts the typed text to every known actor. Delivery is
// best effort: a failed recipient is logged and the loop continues.
func (e *Engine) stageNews(ctx context.Context, msg Inbound) {
	body := "📰 News Update:\n" + msg.Text
	sent := 0
	for _, id := range e.dir.All() {
		if id == e.cfg.Support.GroupID {
			continue
		}
		if _, err := e.transport.Send(ctx, id, body); err != nil {
			slog.Warn("news delivery failed", "recipient", id, "error", err)
			continue
		}
		sent++
	}
	e.send(ctx, msg.ChatID, fmt.Sprintf("News has been sent to %d users!", sent))
}
