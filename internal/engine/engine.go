package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/zeruxbrawl/zeruxbot/internal/config"
	"github.com/zeruxbrawl/zeruxbot/internal/directory"
	"github.com/zeruxbrawl/zeruxbot/internal/moderation"
	"github.com/zeruxbrawl/zeruxbot/internal/relay"
	"github.com/zeruxbrawl/zeruxbot/internal/session"
	"github.com/zeruxbrawl/zeruxbot/internal/store"
	"github.com/zeruxbrawl/zeruxbot/internal/sysinfo"
)

// Transport is the outbound side of the chat service as the engine sees
// it. Delivery failures are surfaced to the invoking actor, never retried.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string) (messageID int, err error)
	Reply(ctx context.Context, chatID int64, messageID int, text string) error
	SendPhoto(ctx context.Context, chatID int64, url, caption string) error
	SendMediaGroup(ctx context.Context, chatID int64, urls []string, caption string) error
	CreateInvite(ctx context.Context, chatID int64) (string, error)
}

// Inbound is one received chat message, already stripped to what the
// engine needs.
type Inbound struct {
	ChatID    int64 // chat the message arrived in; doubles as the actor id for DMs
	MessageID int
	Text      string
	Username  string
	FirstName string
	ReplyToID int // message id being replied to, 0 when not a reply
}

// Engine routes every inbound message: session slot first, then command
// dispatch, then staff-reply resolution inside the support group.
type Engine struct {
	cfg       *config.Config
	accounts  *store.Accounts
	dir       *directory.Directory
	gate      *moderation.Gate
	ledger    *relay.Ledger
	sessions  *session.Machine
	transport Transport

	commands map[string]command

	statsFn func() string

	loginMu sync.Mutex
	logins  map[int64]string // actor id → bound account name

	actorLocks sync.Map // actor id → *sync.Mutex
}

// New wires the engine. All collaborators are required.
func New(cfg *config.Config, accounts *store.Accounts, dir *directory.Directory, gate *moderation.Gate, ledger *relay.Ledger, transport Transport) *Engine {
	e := &Engine{
		cfg:       cfg,
		accounts:  accounts,
		dir:       dir,
		gate:      gate,
		ledger:    ledger,
		sessions:  session.NewMachine(),
		transport: transport,
		statsFn:   func() string { return sysinfo.Collect().String() },
		logins:    make(map[int64]string),
	}
	e.commands = e.commandTable()
	return e
}

// HandleMessage processes one inbound message end to end. It never
// panics the caller's loop; every failure becomes a user-facing reply or
// a log line.
func (e *Engine) HandleMessage(ctx context.Context, msg Inbound) {
	if msg.ChatID == e.cfg.Support.GroupID {
		if msg.ReplyToID != 0 {
			e.resolveStaffReply(ctx, msg)
		}
		return
	}

	actor := msg.ChatID

	// Serialize per actor so two racing messages cannot both claim the
	// single session slot.
	lock := e.lockFor(actor)
	lock.Lock()
	defer lock.Unlock()

	e.dir.Observe(actor, msg.Username, msg.FirstName)

	// An open session always wins, even when the input looks like a
	// command: the text is swallowed as the slot's literal answer.
	if sess, ok := e.sessions.Take(actor); ok {
		e.handleStage(ctx, sess, msg)
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		e.dispatch(ctx, msg)
		return
	}

	slog.Debug("unrouted message ignored", "actor", actor)
}

func (e *Engine) lockFor(actor int64) *sync.Mutex {
	v, _ := e.actorLocks.LoadOrStore(actor, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// send delivers text to a chat, logging delivery failures. The engine
// treats sends as fire-and-forget; a failed confirmation never aborts
// the processing that produced it.
func (e *Engine) send(ctx context.Context, chatID int64, text string) {
	if _, err := e.transport.Send(ctx, chatID, text); err != nil {
		slog.Warn("send failed", "chat_id", chatID, "error", err)
	}
}

// reply answers a specific message, logging delivery failures.
func (e *Engine) reply(ctx context.Context, chatID int64, messageID int, text string) {
	if err := e.transport.Reply(ctx, chatID, messageID, text); err != nil {
		slog.Warn("reply failed", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (e *Engine) boundAccount(actor int64) (string, bool) {
	e.loginMu.Lock()
	defer e.loginMu.Unlock()
	name, ok := e.logins[actor]
	return name, ok
}

func (e *Engine) bindAccount(actor int64, name string) {
	e.loginMu.Lock()
	defer e.loginMu.Unlock()
	e.logins[actor] = name
}

func (e *Engine) unbindAccount(actor int64) bool {
	e.loginMu.Lock()
	defer e.loginMu.Unlock()
	if _, ok := e.logins[actor]; !ok {
		return false
	}
	delete(e.logins, actor)
	return true
}

// rebindAccount follows a rename for every actor logged into oldName.
func (e *Engine) rebindAccount(oldName, newName string) {
	e.loginMu.Lock()
	defer e.loginMu.Unlock()
	for actor, name := range e.logins {
		if name == oldName {
			e.logins[actor] = newName
		}
	}
}
