package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFlexibleInt64SliceShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int64
		err  bool
	}{
		{name: "numbers", in: `[1, 22, 333]`, want: []int64{1, 22, 333}},
		{name: "strings", in: `["1", "22"]`, want: []int64{1, 22}},
		{name: "mixed", in: `[1, "2"]`, want: []int64{1, 2}},
		{name: "negative group id", in: `["-100123"]`, want: []int64{-100123}},
		{name: "garbage string", in: `["abc"]`, err: true},
		{name: "bool", in: `[true]`, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexibleInt64Slice
			err := got.UnmarshalJSON([]byte(tt.in))
			if tt.err {
				if err == nil {
					t.Fatalf("UnmarshalJSON(%s) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON(%s): %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Telegram.Token = "123:abc"
		cfg.Support.GroupID = -100123
		cfg.Support.AdminIDs = []int64{1}
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"missing group", func(c *Config) { c.Support.GroupID = 0 }},
		{"no admins", func(c *Config) { c.Support.AdminIDs = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted a broken config")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Data.AccountsFile != "Database/Player/accounts.json" {
		t.Errorf("accounts file default = %q", cfg.Data.AccountsFile)
	}
	if _, ok := cfg.Theme(1); !ok {
		t.Error("default themes missing")
	}
}

func TestLoadJSON5WithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{
  // staff destination
  support: {
    group_id: -100123,
    admin_ids: ["42", 7],
  },
  telegram: { token: "123:abc" },
}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Support.GroupID != -100123 {
		t.Errorf("group id = %d", cfg.Support.GroupID)
	}
	if !cfg.IsAdmin(42) || !cfg.IsAdmin(7) || cfg.IsAdmin(8) {
		t.Errorf("admin ids = %v", cfg.Support.AdminIDs)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("ZERUX_TELEGRAM_TOKEN", "env:token")
	t.Setenv("ZERUX_SUPPORT_GROUP_ID", "-200456")
	t.Setenv("ZERUX_ADMIN_IDS", "10, 20,30")

	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{ telegram: { token: "file:token" }, support: { group_id: -1, admin_ids: [99] } }`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env:token" {
		t.Errorf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Support.GroupID != -200456 {
		t.Errorf("group id = %d, want env override", cfg.Support.GroupID)
	}
	if len(cfg.Support.AdminIDs) != 3 || !cfg.IsAdmin(20) || cfg.IsAdmin(99) {
		t.Errorf("admin ids = %v, want env override", cfg.Support.AdminIDs)
	}
}
