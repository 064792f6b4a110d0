package moderation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/zeruxbrawl/zeruxbot/internal/directory"
)

func testDirectory(t *testing.T) *directory.Directory {
	t.Helper()
	d := directory.New("")
	d.Observe(7, "rico", "Rico")
	d.Observe(8, "", "NoHandle")
	return d
}

func staticInvite(token string) InviteCreator {
	return func(context.Context) (string, error) { return token, nil }
}

func TestBanDeniesAndUnbanRestores(t *testing.T) {
	g := New("", "", testDirectory(t), staticInvite("x"))

	if allowed, _ := g.Allowed(7); !allowed {
		t.Fatal("fresh actor should be allowed")
	}

	already, err := g.Ban("@rico")
	if err != nil || already {
		t.Fatalf("Ban = (%v, %v), want (false, nil)", already, err)
	}

	allowed, reason := g.Allowed(7)
	if allowed || !reason.Banned {
		t.Fatalf("Allowed after ban = (%v, %+v), want denied/banned", allowed, reason)
	}

	already, err = g.Unban("@rico")
	if err != nil || already {
		t.Fatalf("Unban = (%v, %v), want (false, nil)", already, err)
	}
	if allowed, _ := g.Allowed(7); !allowed {
		t.Error("Allowed after unban = false, want true")
	}
}

func TestBanIdempotence(t *testing.T) {
	g := New("", "", testDirectory(t), staticInvite("x"))

	if _, err := g.Ban("rico"); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	already, err := g.Ban("rico")
	if err != nil || !already {
		t.Errorf("second Ban = (%v, %v), want (true, nil)", already, err)
	}

	if _, err := g.Unban("rico"); err != nil {
		t.Fatalf("Unban: %v", err)
	}
	already, err = g.Unban("rico")
	if err != nil || !already {
		t.Errorf("Unban of unbanned = (%v, %v), want (true, nil)", already, err)
	}
}

func TestBanUnknownHandle(t *testing.T) {
	g := New("", "", testDirectory(t), staticInvite("x"))

	if _, err := g.Ban("@stranger"); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Ban unknown = %v, want ErrUnknownHandle", err)
	}
	if _, err := g.Unban("@stranger"); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Unban unknown = %v, want ErrUnknownHandle", err)
	}
	if err := g.MuteHandle("@stranger", time.Minute); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("MuteHandle unknown = %v, want ErrUnknownHandle", err)
	}
}

func TestMuteExpiry(t *testing.T) {
	g := New("", "", testDirectory(t), staticInvite("x"))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g.now = func() time.Time { return now }

	g.Mute(7, 5*time.Minute)

	allowed, reason := g.Allowed(7)
	if allowed {
		t.Fatal("muted actor should be denied")
	}
	if reason.MutedFor <= 0 || reason.MutedFor > 5*time.Minute {
		t.Errorf("MutedFor = %v, want (0, 5m]", reason.MutedFor)
	}

	// Still muted one second before the deadline.
	now = base.Add(5*time.Minute - time.Second)
	if allowed, _ := g.Allowed(7); allowed {
		t.Error("actor allowed before mute expiry")
	}

	// Unmuted one second past the deadline, with no explicit unmute.
	now = base.Add(5*time.Minute + time.Second)
	if allowed, _ := g.Allowed(7); !allowed {
		t.Error("actor still denied after mute expiry")
	}
}

func TestMuteOverwritesNoStacking(t *testing.T) {
	g := New("", "", testDirectory(t), staticInvite("x"))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g.now = func() time.Time { return now }

	g.Mute(7, time.Hour)
	g.Mute(7, time.Minute)

	now = base.Add(2 * time.Minute)
	if allowed, _ := g.Allowed(7); !allowed {
		t.Error("second mute should have replaced the first, not stacked")
	}
}

func TestIssueInviteBurnsOnIssue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invites.json")
	calls := 0
	creator := func(context.Context) (string, error) {
		calls++
		return fmt.Sprintf("https://t.me/+invite%d", calls), nil
	}

	g := New("", path, testDirectory(t), creator)

	token, err := g.IssueInvite(context.Background())
	if err != nil {
		t.Fatalf("IssueInvite: %v", err)
	}
	if !g.InviteUsed(token) {
		t.Error("token not marked used immediately after issuance")
	}

	// Re-reading the persisted ledger shows used=true as well.
	reloaded := New("", path, testDirectory(t), creator)
	if !reloaded.InviteUsed(token) {
		t.Error("persisted ledger does not show used=true")
	}

	// A second issuance never hands out the same token unused.
	token2, err := g.IssueInvite(context.Background())
	if err != nil {
		t.Fatalf("second IssueInvite: %v", err)
	}
	if token2 == token {
		t.Error("issue returned the same token twice")
	}
}

func TestIssueInviteTransportFailure(t *testing.T) {
	g := New("", "", testDirectory(t), func(context.Context) (string, error) {
		return "", errors.New("flood wait")
	})
	if _, err := g.IssueInvite(context.Background()); err == nil {
		t.Error("expected error from failing invite creator")
	}
}

func TestBansPersistAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.json")
	dir := testDirectory(t)

	g := New(path, "", dir, staticInvite("x"))
	if _, err := g.Ban("rico"); err != nil {
		t.Fatalf("Ban: %v", err)
	}

	reloaded := New(path, "", dir, staticInvite("x"))
	if allowed, reason := reloaded.Allowed(7); allowed || !reason.Banned {
		t.Errorf("ban did not survive restart: allowed=%v reason=%+v", allowed, reason)
	}
}
