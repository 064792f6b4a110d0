package directory

import (
	"path/filepath"
	"testing"
)

func TestObservePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		firstName string
		want      string
	}{
		{name: "username wins", username: "rico", firstName: "Rico", want: "@rico"},
		{name: "first name fallback", username: "", firstName: "Rico", want: "Rico"},
		{name: "stringified id fallback", username: "", firstName: "", want: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New("")
			d.Observe(7, tt.username, tt.firstName)
			if got := d.Resolve(7); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveUnknownActor(t *testing.T) {
	d := New("")
	if got := d.Resolve(99); got != "99" {
		t.Errorf("Resolve(99) = %q, want stringified id", got)
	}
}

func TestObserveUpdatesHandle(t *testing.T) {
	d := New("")
	d.Observe(7, "", "Rico")
	d.Observe(7, "ricodev", "Rico")
	if got := d.Resolve(7); got != "@ricodev" {
		t.Errorf("Resolve after update = %q, want @ricodev", got)
	}
}

func TestLookupHandleNormalization(t *testing.T) {
	d := New("")
	d.Observe(7, "RicoDEV", "Rico")

	for _, handle := range []string{"@RicoDEV", "ricodev", " @ricodev "} {
		id, ok := d.LookupHandle(handle)
		if !ok || id != 7 {
			t.Errorf("LookupHandle(%q) = (%d, %v), want (7, true)", handle, id, ok)
		}
	}

	if _, ok := d.LookupHandle("stranger"); ok {
		t.Error("LookupHandle found an unobserved handle")
	}
}

func TestAllAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_users.json")

	d := New(path)
	d.Observe(1, "a", "")
	d.Observe(2, "", "B")
	if got := len(d.All()); got != 2 {
		t.Fatalf("All = %d actors, want 2", got)
	}

	reloaded := New(path)
	if got := len(reloaded.All()); got != 2 {
		t.Errorf("reloaded All = %d actors, want 2", got)
	}
	if got := reloaded.Resolve(1); got != "@a" {
		t.Errorf("reloaded Resolve(1) = %q, want @a", got)
	}
}
