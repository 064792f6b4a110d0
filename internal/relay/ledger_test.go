package relay

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecordAndLookup(t *testing.T) {
	l := New("")

	if err := l.Record(42, 7); err != nil {
		t.Fatalf("Record: %v", err)
	}

	actor, ok := l.Lookup(42)
	if !ok || actor != 7 {
		t.Errorf("Lookup(42) = (%d, %v), want (7, true)", actor, ok)
	}
	if _, ok := l.Lookup(43); ok {
		t.Error("Lookup(43) found an entry, want absent")
	}
}

func TestRecordOverwritesLastWriteWins(t *testing.T) {
	l := New("")

	if err := l.Record(42, 7); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(42, 9); err != nil {
		t.Fatalf("Record overwrite: %v", err)
	}

	if actor, _ := l.Lookup(42); actor != 9 {
		t.Errorf("Lookup after overwrite = %d, want 9", actor)
	}
}

func TestLedgerSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarded_messages.json")

	l := New(path)
	if err := l.Record(1001, 555); err != nil {
		t.Fatalf("Record: %v", err)
	}

	reloaded := New(path)
	actor, ok := reloaded.Lookup(1001)
	if !ok || actor != 555 {
		t.Errorf("reloaded Lookup(1001) = (%d, %v), want (555, true)", actor, ok)
	}
}

func TestCorruptLedgerStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forwarded_messages.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	l := New(path)
	if _, ok := l.Lookup(1); ok {
		t.Error("corrupt ledger produced entries")
	}
	// New writes still work over the corrupt file.
	if err := l.Record(2, 3); err != nil {
		t.Fatalf("Record over corrupt file: %v", err)
	}
}
