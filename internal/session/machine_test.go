package session

import (
	"sync"
	"testing"
)

func TestOpenAndTake(t *testing.T) {
	m := NewMachine()

	if err := m.Open(7, StageAwaitingLogin); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := m.Stage(7); got != StageAwaitingLogin {
		t.Fatalf("Stage = %v, want %v", got, StageAwaitingLogin)
	}

	sess, ok := m.Take(7)
	if !ok {
		t.Fatal("Take returned no session")
	}
	if sess.Stage != StageAwaitingLogin || sess.ActorID != 7 {
		t.Errorf("unexpected session: %+v", sess)
	}

	// Slot must be closed once taken.
	if _, ok := m.Take(7); ok {
		t.Error("Take returned a session twice")
	}
}

func TestOpenConflict(t *testing.T) {
	m := NewMachine()

	if err := m.Open(7, StageAwaitingLogin); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := m.Open(7, StageAwaitingSupportMessage); err != ErrConflict {
		t.Fatalf("Open with different stage = %v, want ErrConflict", err)
	}
	// The original slot is untouched by the failed open.
	if got := m.Stage(7); got != StageAwaitingLogin {
		t.Errorf("Stage after conflict = %v, want %v", got, StageAwaitingLogin)
	}

	// Reopening the same stage is allowed and resets scratch.
	if err := m.OpenWith(7, StageAwaitingLogin, "stale"); err != nil {
		t.Fatalf("reopen same stage: %v", err)
	}
}

func TestOpenWithScratch(t *testing.T) {
	m := NewMachine()

	if err := m.OpenWith(3, StageAwaitingRenameNew, "Rico"); err != nil {
		t.Fatalf("OpenWith: %v", err)
	}
	sess, ok := m.Take(3)
	if !ok || sess.CurrentName != "Rico" {
		t.Fatalf("Take = %+v, %v; want CurrentName Rico", sess, ok)
	}
}

// TestSingleSlotUnderConcurrency verifies the core invariant: after any
// number of concurrent opens and takes for the same actor, at most one
// session remains open.
func TestSingleSlotUnderConcurrency(t *testing.T) {
	m := NewMachine()
	stages := []Stage{
		StageAwaitingLogin,
		StageAwaitingSupportMessage,
		StageAwaitingThemeSelection,
		StageAwaitingNewsBody,
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 0 {
				m.Take(42)
			} else {
				m.Open(42, stages[i%len(stages)])
			}
		}(i)
	}
	wg.Wait()

	open := 0
	if _, ok := m.Take(42); ok {
		open++
	}
	if _, ok := m.Take(42); ok {
		open++
	}
	if open > 1 {
		t.Fatalf("actor had %d open sessions, want at most 1", open)
	}
}

func TestClear(t *testing.T) {
	m := NewMachine()
	if err := m.Open(1, StageAwaitingNewsBody); err != nil {
		t.Fatalf("Open: %v", err)
	}
	m.Clear(1)
	if got := m.Stage(1); got != StageNone {
		t.Errorf("Stage after Clear = %v, want StageNone", got)
	}
}
