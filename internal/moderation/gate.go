package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zeruxbrawl/zeruxbot/internal/directory"
	"github.com/zeruxbrawl/zeruxbot/internal/store"
)

// ErrUnknownHandle is returned when a moderation action names a handle
// that no observed actor has ever used. No state is mutated in that case.
var ErrUnknownHandle = errors.New("no user with that handle has messaged the bot")

// InviteCreator produces a fresh single-use invite artifact for the staff
// destination. Implemented by the chat transport.
type InviteCreator func(ctx context.Context) (string, error)

// Reason explains a denied Allowed check.
type Reason struct {
	Banned   bool
	MutedFor time.Duration
}

func (r Reason) String() string {
	if r.Banned {
		return "banned"
	}
	if r.MutedFor > 0 {
		return fmt.Sprintf("muted for another %s", r.MutedFor.Round(time.Second))
	}
	return "allowed"
}

type inviteRecord struct {
	Used     bool      `json:"used"`
	IssuedAt time.Time `json:"issued_at"`
}

// Gate decides whether an actor may use the support relay. Bans and the
// invite ledger are persisted; mutes are held for process lifetime only
// and expire on their own once the deadline passes.
type Gate struct {
	mu      sync.Mutex
	bans    map[string]bool
	mutes   map[int64]time.Time
	invites map[string]inviteRecord

	bansPath    string
	invitesPath string

	dir          *directory.Directory
	createInvite InviteCreator

	now func() time.Time
}

// New creates a gate and hydrates the ban set and invite ledger from disk.
func New(bansPath, invitesPath string, dir *directory.Directory, createInvite InviteCreator) *Gate {
	g := &Gate{
		bans:         make(map[string]bool),
		mutes:        make(map[int64]time.Time),
		invites:      make(map[string]inviteRecord),
		bansPath:     bansPath,
		invitesPath:  invitesPath,
		dir:          dir,
		createInvite: createInvite,
		now:          time.Now,
	}
	if bansPath != "" {
		store.LoadDocument(bansPath, &g.bans)
		if g.bans == nil {
			g.bans = make(map[string]bool)
		}
	}
	if invitesPath != "" {
		store.LoadDocument(invitesPath, &g.invites)
		if g.invites == nil {
			g.invites = make(map[string]inviteRecord)
		}
	}
	return g
}

// Allowed reports whether the actor may contact support. Fails closed:
// banned first, then an unexpired mute.
func (g *Gate) Allowed(actorID int64) (bool, Reason) {
	handle := normalize(g.dir.Resolve(actorID))

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.bans[handle] {
		return false, Reason{Banned: true}
	}
	if until, ok := g.mutes[actorID]; ok {
		if remaining := until.Sub(g.now()); remaining > 0 {
			return false, Reason{MutedFor: remaining}
		}
		delete(g.mutes, actorID)
	}
	return true, Reason{}
}

// Ban adds the handle to the persistent ban set. Returns true when the
// handle was already banned (a no-op the caller reports, not an error).
func (g *Gate) Ban(handle string) (already bool, err error) {
	if _, ok := g.dir.LookupHandle(handle); !ok {
		return false, ErrUnknownHandle
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := normalize(handle)
	if g.bans[key] {
		return true, nil
	}
	g.bans[key] = true
	return false, g.saveBans()
}

// Unban removes the handle from the ban set. Returns true when the handle
// was not banned to begin with.
func (g *Gate) Unban(handle string) (already bool, err error) {
	if _, ok := g.dir.LookupHandle(handle); !ok {
		return false, ErrUnknownHandle
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := normalize(handle)
	if !g.bans[key] {
		return true, nil
	}
	delete(g.bans, key)
	return false, g.saveBans()
}

// Mute silences the actor until now+d, overwriting any existing mute.
func (g *Gate) Mute(actorID int64, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mutes[actorID] = g.now().Add(d)
}

// MuteHandle resolves a handle through the directory and mutes the actor.
func (g *Gate) MuteHandle(handle string, d time.Duration) error {
	id, ok := g.dir.LookupHandle(handle)
	if !ok {
		return ErrUnknownHandle
	}
	g.Mute(id, d)
	return nil
}

// IssueInvite asks the transport for a fresh invite and records it as used
// before returning it. The transport cannot observe redemption, so the
// token is burned on issue: each one grants exactly one acceptance.
func (g *Gate) IssueInvite(ctx context.Context) (string, error) {
	token, err := g.createInvite(ctx)
	if err != nil {
		return "", fmt.Errorf("create invite: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.invites[token] = inviteRecord{Used: true, IssuedAt: g.now()}
	if g.invitesPath != "" {
		if err := store.SaveDocument(g.invitesPath, g.invites); err != nil {
			return "", fmt.Errorf("persist invite ledger: %w", err)
		}
	}
	return token, nil
}

// InviteUsed reports the recorded used flag for a token.
func (g *Gate) InviteUsed(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.invites[token].Used
}

func (g *Gate) saveBans() error {
	if g.bansPath == "" {
		return nil
	}
	return store.SaveDocument(g.bansPath, g.bans)
}

func normalize(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}
