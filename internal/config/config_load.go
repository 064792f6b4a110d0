package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			AccountsFile: "Database/Player/accounts.json",
			ClubDir:      "Database/Club",
			PlayerDir:    "Database/Player",
			BansFile:     "data/banned_users.json",
			RelayFile:    "data/forwarded_messages.json",
			InvitesFile:  "data/invites.json",
			UsersFile:    "data/known_users.json",
		},
		Themes: []ThemeConfig{
			{ID: 1, Name: "Default"},
			{ID: 2, Name: "Dark"},
			{ID: 3, Name: "Retro"},
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error; env vars can carry the whole config.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ZERUX_TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("ZERUX_SUPPORT_GROUP_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Support.GroupID = id
		}
	}
	if v := os.Getenv("ZERUX_ADMIN_IDS"); v != "" {
		var ids []int64
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			c.Support.AdminIDs = ids
		}
	}
}
