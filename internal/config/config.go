package config

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleInt64Slice accepts both [123] and ["123"] in JSON.
// Operators paste chat ids from different tools and both shapes show up
// in real config files.
type FlexibleInt64Slice []int64

func (f *FlexibleInt64Slice) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case float64:
			result = append(result, int64(val))
		case string:
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", val, err)
			}
			result = append(result, n)
		default:
			return fmt.Errorf("invalid id value %v", v)
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the Zerux admin bot.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Support  SupportConfig  `json:"support"`
	Data     DataConfig     `json:"data,omitempty"`
	Info     InfoConfig     `json:"info,omitempty"`
	Themes   []ThemeConfig  `json:"themes,omitempty"`
}

// TelegramConfig configures the bot transport.
// Token is read from env ZERUX_TELEGRAM_TOKEN when present; the env var wins.
type TelegramConfig struct {
	Token string `json:"token,omitempty"`
	Proxy string `json:"proxy,omitempty"`
}

// SupportConfig holds the staff destination and the admin allowlist.
type SupportConfig struct {
	GroupID  int64              `json:"group_id"`
	AdminIDs FlexibleInt64Slice `json:"admin_ids"`
}

// DataConfig holds paths for persisted documents.
type DataConfig struct {
	AccountsFile string `json:"accounts_file,omitempty"`
	ClubDir      string `json:"club_dir,omitempty"`
	PlayerDir    string `json:"player_dir,omitempty"`
	BansFile     string `json:"bans_file,omitempty"`
	RelayFile    string `json:"relay_file,omitempty"`
	InvitesFile  string `json:"invites_file,omitempty"`
	UsersFile    string `json:"users_file,omitempty"`
}

// InfoConfig feeds the /info command.
type InfoConfig struct {
	BotVersion    string   `json:"bot_version,omitempty"`
	ServerVersion string   `json:"server_version,omitempty"`
	GameVersion   string   `json:"game_version,omitempty"`
	Changelog     string   `json:"changelog,omitempty"`
	Images        []string `json:"images,omitempty"`
}

// ThemeConfig is one selectable client theme.
type ThemeConfig struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// IsAdmin reports whether the actor id is in the configured admin set.
func (c *Config) IsAdmin(actorID int64) bool {
	for _, id := range c.Support.AdminIDs {
		if id == actorID {
			return true
		}
	}
	return false
}

// Theme returns the configured theme with the given id.
func (c *Config) Theme(id int) (ThemeConfig, bool) {
	for _, t := range c.Themes {
		if t.ID == id {
			return t, true
		}
	}
	return ThemeConfig{}, false
}

// Validate checks the startup-critical fields. A bot with no token, no
// admins, or no support destination must not start half-configured.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is not configured (set ZERUX_TELEGRAM_TOKEN or telegram.token)")
	}
	if c.Support.GroupID == 0 {
		return fmt.Errorf("support group id is not configured")
	}
	if len(c.Support.AdminIDs) == 0 {
		return fmt.Errorf("admin id list is empty")
	}
	return nil
}
