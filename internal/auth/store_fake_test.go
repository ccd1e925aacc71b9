package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lanahead/lanahead/internal/domain/repository"
)

// fakeStore is an in-memory repository.Store for orchestrator tests.
type fakeStore struct {
	mu sync.Mutex

	players  map[int64]*repository.Player
	nextID   int64
	accounts map[string]*repository.Account
	profiles map[int64]repository.ProfileSnapshot
	emails   map[string]int64
	tokens   map[string]repository.RememberToken

	lastLogins   map[int64]int
	lastRequests map[int64]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:      map[int64]*repository.Player{},
		nextID:       1,
		accounts:     map[string]*repository.Account{},
		profiles:     map[int64]repository.ProfileSnapshot{},
		emails:       map[string]int64{},
		tokens:       map[string]repository.RememberToken{},
		lastLogins:   map[int64]int{},
		lastRequests: map[int64]int{},
	}
}

func accountKey(site, id string) string { return site + "/" + id }

// addPlayer seeds a player with one linked account and returns the player ID.
func (f *fakeStore) addPlayer(username, site, accountID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.players[id] = &repository.Player{ID: id, Username: username}
	if site != "" {
		profileID := id * 100
		f.accounts[accountKey(site, accountID)] = &repository.Account{Site: site, ID: accountID, PlayerID: id, ProfileID: profileID}
		f.profiles[profileID] = repository.ProfileSnapshot{Name: username}
	}
	return id
}

func (f *fakeStore) Players() repository.PlayerRepository         { return (*fakePlayers)(f) }
func (f *fakeStore) Accounts() repository.AccountRepository       { return (*fakeAccounts)(f) }
func (f *fakeStore) Profiles() repository.ProfileRepository       { return (*fakeProfiles)(f) }
func (f *fakeStore) Emails() repository.EmailRepository           { return (*fakeEmails)(f) }
func (f *fakeStore) RememberTokens() repository.RememberTokenRepository { return (*fakeTokens)(f) }
func (f *fakeStore) Ping(context.Context) error                   { return nil }
func (f *fakeStore) Close()                                       {}

type fakePlayers fakeStore

func (f *fakePlayers) GetByID(_ context.Context, id int64) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlayers) List(context.Context) ([]repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePlayers) Register(_ context.Context, input repository.RegisterPlayerInput) (*repository.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Username == input.Username {
			return nil, repository.ErrConflict
		}
	}
	if _, ok := f.accounts[accountKey(input.Site, input.AccountID)]; ok {
		return nil, repository.ErrConflict
	}
	id := f.nextID
	f.nextID++
	player := &repository.Player{ID: id, Username: input.Username, RealName: input.RealName}
	f.players[id] = player

	profileID := id * 100
	f.profiles[profileID] = input.AccountProfile
	f.accounts[accountKey(input.Site, input.AccountID)] = &repository.Account{
		Site: input.Site, ID: input.AccountID, PlayerID: id, ProfileID: profileID,
	}
	if input.UseAccountAvatar {
		player.Avatar = input.AccountProfile.Avatar
	}
	if input.Email != "" {
		f.emails[input.Email] = id
		f.profiles[profileID+1] = input.EmailProfile
		if input.UseEmailAvatar {
			player.Avatar = input.EmailProfile.Avatar
		}
	}
	cp := *player
	return &cp, nil
}

func (f *fakePlayers) UsernameUsedBy(_ context.Context, username string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Username == username {
			return p.ID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (f *fakePlayers) TouchLastLogin(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogins[id]++
	return nil
}

func (f *fakePlayers) TouchLastRequest(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequests[id]++
	return nil
}

type fakeAccounts fakeStore

func (f *fakeAccounts) Get(_ context.Context, site, id string) (*repository.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountKey(site, id)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) ListForPlayer(_ context.Context, playerID int64) ([]repository.AccountWithProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.AccountWithProfile
	for _, a := range f.accounts {
		if a.PlayerID == playerID {
			out = append(out, repository.AccountWithProfile{Account: *a, Profile: f.profiles[a.ProfileID]})
		}
	}
	return out, nil
}

func (f *fakeAccounts) Link(_ context.Context, playerID int64, site, id string, profile repository.ProfileSnapshot, useAvatar bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := accountKey(site, id)
	if _, ok := f.accounts[key]; ok {
		return repository.ErrConflict
	}
	profileID := int64(len(f.profiles)*10 + 1000)
	f.profiles[profileID] = profile
	f.accounts[key] = &repository.Account{Site: site, ID: id, PlayerID: playerID, ProfileID: profileID}
	if useAvatar {
		f.players[playerID].Avatar = profile.Avatar
	}
	return nil
}

func (f *fakeAccounts) Unlink(_ context.Context, playerID int64, site, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := accountKey(site, id)
	a, ok := f.accounts[key]
	if !ok || a.PlayerID != playerID {
		return repository.ErrNotFound
	}
	var linked int
	for _, other := range f.accounts {
		if other.PlayerID == playerID {
			linked++
		}
	}
	if linked <= 1 {
		return repository.ErrLastSignIn
	}
	delete(f.profiles, a.ProfileID)
	delete(f.accounts, key)
	return nil
}

type fakeProfiles fakeStore

func (f *fakeProfiles) Update(_ context.Context, id int64, name, url, avatar string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name, p.URL, p.Avatar = name, url, avatar
	f.profiles[id] = p
	return nil
}

type fakeEmails fakeStore

func (f *fakeEmails) UsedBy(_ context.Context, address string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.emails[address]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

type fakeTokens fakeStore

func (f *fakeTokens) Get(_ context.Context, series string) (*repository.RememberToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[series]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (f *fakeTokens) Exists(_ context.Context, series string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tokens[series]
	return ok, nil
}

func (f *fakeTokens) Save(_ context.Context, tok repository.RememberToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tok.Series] = tok
	return nil
}

func (f *fakeTokens) Delete(_ context.Context, series string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, series)
	now := time.Now()
	for s, t := range f.tokens {
		if t.Expires.Before(now) {
			delete(f.tokens, s)
		}
	}
	return nil
}

// expireSeries backdates a token for expiry tests.
func (f *fakeStore) expireSeries(series string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[series]
	if !ok {
		return fmt.Errorf("series %q not stored", series)
	}
	t.Expires = time.Now().Add(-time.Minute)
	f.tokens[series] = t
	return nil
}
