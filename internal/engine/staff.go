package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/zeruxbrawl/zeruxbot/internal/moderation"
)

// resolveStaffReply interprets a reply inside the support group to a
// previously relayed message. The reply text selects the action; every
// branch acknowledges the staff chat with what was done.
func (e *Engine) resolveStaffReply(ctx context.Context, msg Inbound) {
	origin, ok := e.ledger.Lookup(msg.ReplyToID)
	if !ok {
		e.send(ctx, msg.ChatID, "No user is linked to that message.")
		return
	}

	text := strings.TrimSpace(msg.Text)
	verb, rest, _ := strings.Cut(text, " ")
	verb = strings.ToLower(verb)
	rest = strings.TrimSpace(rest)

	switch verb {
	case "accept":
		e.staffAccept(ctx, msg, origin)
	case "decline":
		e.staffDecline(ctx, msg, origin, rest)
	case "mute":
		e.staffMute(ctx, msg, origin, rest)
	case "ban":
		e.staffBan(ctx, msg, origin)
	case "unban":
		e.staffUnban(ctx, msg, origin)
	default:
		e.send(ctx, origin, "Reply from Support Team: "+text)
		e.send(ctx, msg.ChatID, "Message has been sent!")
	}
}

func (e *Engine) staffAccept(ctx context.Context, msg Inbound, origin int64) {
	token, err := e.gate.IssueInvite(ctx)
	if err != nil {
		slog.Warn("invite issue failed", "origin", origin, "error", err)
		e.send(ctx, msg.ChatID, "Failed to create an invite. Please accept again.")
		return
	}
	e.send(ctx, origin, "Your request has been accepted! Join us here: "+token)
	e.send(ctx, msg.ChatID, fmt.Sprintf("Invite sent to %s.", e.dir.Resolve(origin)))
}

func (e *Engine) staffDecline(ctx context.Context, msg Inbound, origin int64, reason string) {
	text := "Your request has been declined."
	if reason != "" {
		text += " Reason: " + reason
	}
	e.send(ctx, origin, text)
	e.send(ctx, msg.ChatID, fmt.Sprintf("Decline sent to %s.", e.dir.Resolve(origin)))
}

func (e *Engine) staffMute(ctx context.Context, msg Inbound, origin int64, rest string) {
	minutes, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || minutes <= 0 {
		e.send(ctx, msg.ChatID, "Usage: reply with \"mute <minutes>\".")
		return
	}
	e.gate.Mute(origin, time.Duration(minutes)*time.Minute)
	e.send(ctx, msg.ChatID, fmt.Sprintf("%s has been muted for %d minutes.", e.dir.Resolve(origin), minutes))
}

func (e *Engine) staffBan(ctx context.Context, msg Inbound, origin int64) {
	handle := e.dir.Resolve(origin)
	already, err := e.gate.Ban(handle)
	switch {
	case errors.Is(err, moderation.ErrUnknownHandle):
		e.send(ctx, msg.ChatID, fmt.Sprintf("Cannot resolve %s to a known user.", handle))
	case err != nil:
		slog.Error("staff ban failed", "handle", handle, "error", err)
		e.send(ctx, msg.ChatID, "Failed to save the ban list. Please try again.")
	case already:
		e.send(ctx, msg.ChatID, fmt.Sprintf("%s is already banned.", handle))
	default:
		e.send(ctx, msg.ChatID, fmt.Sprintf("%s has been banned from support.", handle))
	}
}

func (e *Engine) staffUnban(ctx context.Context, msg Inbound, origin int64) {
	handle := e.dir.Resolve(origin)
	already, err := e.gate.Unban(handle)
	switch {
	case errors.Is(err, moderation.ErrUnknownHandle):
		e.send(ctx, msg.ChatID, fmt.Sprintf("Cannot resolve %s to a known user.", handle))
	case err != nil:
		slog.Error("staff unban failed", "handle", handle, "error", err)
		e.send(ctx, msg.ChatID, "Failed to save the ban list. Please try again.")
	case already:
		e.send(ctx, msg.ChatID, fmt.Sprintf("%s is not banned.", handle))
	default:
		e.send(ctx, msg.ChatID, fmt.Sprintf("%s has been unbanned.", handle))
	}
}
