package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Account is one player record as stored by the game server.
// Field names match the accounts.json document written by the server.
type Account struct {
	Name            string `json:"name"`
	Gems            int    `json:"gems"`
	Gold            int    `json:"gold"`
	Trophies        int    `json:"trophies"`
	HighestTrophies int    `json:"highesttrophies"`
	SoloWins        int    `json:"soloWins"`
	DuoWins         int    `json:"duoWins"`
	TrioWins        int    `json:"3vs3Wins"`
	Theme           int    `json:"theme,omitempty"`
}

// accountsDocument is the wrapper object the game server writes.
type accountsDocument struct {
	Accounts map[string]*Account `json:"Accounts"`
}

// Accounts reads and writes the player account document. The file is owned
// by the game server, so every operation re-reads it and writes the whole
// collection back (no partial update API).
type Accounts struct {
	mu        sync.Mutex
	path      string
	playerDir string
	clubDir   string
}

// NewAccounts creates an account store over the given accounts.json path.
// playerDir and clubDir are the database directories used by the bulk
// reset operations.
func NewAccounts(path, playerDir, clubDir string) *Accounts {
	return &Accounts{path: path, playerDir: playerDir, clubDir: clubDir}
}

func (a *Accounts) load() accountsDocument {
	doc := accountsDocument{Accounts: map[string]*Account{}}
	LoadDocument(a.path, &doc)
	if doc.Accounts == nil {
		doc.Accounts = map[string]*Account{}
	}
	return doc
}

// FindByName returns a copy of the account with the given name.
func (a *Accounts) FindByName(name string) (Account, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := a.load()
	for _, acct := range doc.Accounts {
		if acct.Name == name {
			return *acct, true
		}
	}
	return Account{}, false
}

// Update applies fn to the account matching name and writes the whole
// collection back. Returns false without writing when no account matches.
func (a *Accounts) Update(name string, fn func(*Account)) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := a.load()
	for _, acct := range doc.Accounts {
		if acct.Name == name {
			fn(acct)
			return true, SaveDocument(a.path, doc)
		}
	}
	return false, nil
}

// Top returns up to n accounts ordered by trophies, highest first.
func (a *Accounts) Top(n int) []Account {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := a.load()
	all := make([]Account, 0, len(doc.Accounts))
	for _, acct := range doc.Accounts {
		all = append(all, *acct)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Trophies > all[j].Trophies })
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// ResetData deletes the whole account document.
// Returns os.ErrNotExist when the file is already gone.
func (a *Accounts) ResetData() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return os.Remove(a.path)
}

// ResetClubs deletes the club database files. Missing files are skipped;
// any deletion failures are collected and returned.
func (a *Accounts) ResetClubs() []error {
	a.mu.Lock()
	defer a.mu.Unlock()

	files := []string{"club.db", "clubs.json", "chat.db", "chats.json"}
	var errs []error
	for _, name := range files {
		path := filepath.Join(a.clubDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("delete %s: %w", path, err))
		}
	}
	return errs
}

// ResetAll removes the club and player database directories entirely.
func (a *Accounts) ResetAll() []error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, dir := range []string{a.clubDir, a.playerDir} {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", dir, err))
		}
	}
	return errs
}
