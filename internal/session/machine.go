package session

import (
	"errors"
	"sync"
)

// Stage names the pending multi-turn interaction an actor is in.
type Stage int

const (
	StageNone Stage = iota
	StageAwaitingLogin
	StageAwaitingSupportMessage
	StageAwaitingAdminRequest
	StageAwaitingRenameCurrent
	StageAwaitingRenameNew
	StageAwaitingThemeSelection
	StageAwaitingNewsBody
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingLogin:
		return "awaiting_login"
	case StageAwaitingSupportMessage:
		return "awaiting_support"
	case StageAwaitingAdminRequest:
		return "awaiting_admin_request"
	case StageAwaitingRenameCurrent:
		return "awaiting_rename_current"
	case StageAwaitingRenameNew:
		return "awaiting_rename_new"
	case StageAwaitingThemeSelection:
		return "awaiting_theme"
	case StageAwaitingNewsBody:
		return "awaiting_news"
	default:
		return "idle"
	}
}

// ErrConflict is returned when an actor already has a different
// interaction open.
var ErrConflict = errors.New("another interaction is already in progress")

// Session is the single pending interaction slot for one actor.
// CurrentName carries the first answer of the rename flow between turns.
type Session struct {
	ActorID     int64
	Stage       Stage
	CurrentName string
}

// Machine holds at most one open session per actor. Opening, taking, and
// clearing a slot are atomic, so a message is never consumed by both a
// session handler and the command dispatcher.
type Machine struct {
	mu    sync.Mutex
	slots map[int64]*Session
}

func NewMachine() *Machine {
	return &Machine{slots: make(map[int64]*Session)}
}

// Open claims the actor's slot for the given stage. Reopening the same
// stage resets its scratch data; a different open stage is a conflict and
// leaves the slot untouched.
func (m *Machine) Open(actorID int64, stage Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.slots[actorID]; ok && existing.Stage != stage {
		return ErrConflict
	}
	m.slots[actorID] = &Session{ActorID: actorID, Stage: stage}
	return nil
}

// OpenWith is Open with scratch data, used to chain the rename stages.
func (m *Machine) OpenWith(actorID int64, stage Stage, currentName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.slots[actorID]; ok && existing.Stage != stage {
		return ErrConflict
	}
	m.slots[actorID] = &Session{ActorID: actorID, Stage: stage, CurrentName: currentName}
	return nil
}

// Take removes and returns the actor's open session. The caller owns the
// returned copy; the slot is closed by the time Take returns.
func (m *Machine) Take(actorID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[actorID]
	if !ok {
		return Session{}, false
	}
	delete(m.slots, actorID)
	return *s, true
}

// Stage returns the open stage for an actor, StageNone when idle.
func (m *Machine) Stage(actorID int64) Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[actorID]; ok {
		return s.Stage
	}
	return StageNone
}

// Clear closes the actor's slot if one is open.
func (m *Machine) Clear(actorID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, actorID)
}
