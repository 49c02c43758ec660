// Package session keeps the logged-in account and its bearer token between runs.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/services/apiclient"
)

// Keys persisted by a Manager. They are written together on login and cleared together on logout.
const (
	KeyAccessToken = "access_token"
	KeyTokenType   = "token_type"
	KeyUser        = "user"
)

var (
	Keys = []string{KeyAccessToken, KeyTokenType, KeyUser}

	ErrNotLoggedIn = errors.New("vous n'êtes pas connecté")
)

// Store is a small persistent key-value store.
type Store interface {
	// Get returns ok=false when key is not set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes every pair or none.
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// API is the part of the remote client a Manager needs.
type API interface {
	Get(ctx context.Context, endpoint string, params map[string]string, out interface{}) error
	Post(ctx context.Context, endpoint string, body, out interface{}) error
}

type (
	Credentials struct {
		Identifier string `json:"identifier" validate:"required"` // username or email
		Password   string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		AccessToken string       `json:"access_token"`
		TokenType   string       `json:"token_type"`
		User        account.User `json:"user"`
	}
)

func (c *Credentials) Validate() error {
	c.Identifier = core.CleanString(c.Identifier, true /* lower */)
	return core.ValidateStruct(c)
}

// Manager implements apiclient.TokenSource.
type Manager struct {
	api   API
	store Store

	mu        sync.RWMutex
	token     string
	tokenType string
	user      account.User
}

var _ apiclient.TokenSource = (*Manager)(nil)

func NewManager(api API, store Store) *Manager {
	return &Manager{api: api, store: store}
}

// Load restores a persisted session. An incomplete one is cleared.
func (m *Manager) Load(ctx context.Context) error {
	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		val, ok, err := m.store.Get(ctx, key)
		if err != nil {
			return errors.Wrapf(err, "reading %s", key)
		}
		if !ok || val == "" {
			if key == KeyTokenType {
				continue
			}
			m.clear()
			return errors.Wrap(m.store.Delete(ctx, Keys...), "clearing session")
		}
		values[key] = val
	}

	var usr account.User
	if err := json.Unmarshal([]byte(values[KeyUser]), &usr); err != nil {
		m.clear()
		return errors.Wrap(m.store.Delete(ctx, Keys...), "clearing session")
	}

	m.mu.Lock()
	m.token = values[KeyAccessToken]
	m.tokenType = values[KeyTokenType]
	m.user = usr
	m.mu.Unlock()
	return nil
}

// Login exchanges credentials for a token, then persists the session.
func (m *Manager) Login(ctx context.Context, identifier, password string) (account.User, error) {
	creds := Credentials{Identifier: identifier, Password: password}
	if err := creds.Validate(); err != nil {
		return account.User{}, err
	}

	var res LoginResponse
	if err := m.api.Post(ctx, "/auth/login", creds, &res); err != nil {
		switch {
		case apiclient.IsKind(err, apiclient.KindUnauthorized), apiclient.IsKind(err, apiclient.KindValidation):
			return account.User{}, account.ErrInvalidLogin
		case apiclient.IsKind(err, apiclient.KindForbidden):
			return account.User{}, account.ErrInactive
		}
		return account.User{}, errors.Wrap(err, "logging in")
	}
	if res.AccessToken == "" {
		return account.User{}, errors.New("logging in: empty access token")
	}
	if res.TokenType == "" {
		res.TokenType = "bearer"
	}

	usr, err := json.Marshal(res.User)
	if err != nil {
		return account.User{}, errors.Wrap(err, "encoding user")
	}
	if err := m.store.Set(ctx, map[string]string{
		KeyAccessToken: res.AccessToken,
		KeyTokenType:   res.TokenType,
		KeyUser:        string(usr),
	}); err != nil {
		return account.User{}, errors.Wrap(err, "saving session")
	}

	m.mu.Lock()
	m.token, m.tokenType, m.user = res.AccessToken, res.TokenType, res.User
	m.mu.Unlock()
	return res.User, nil
}

// Logout is local only: the three keys are removed together.
func (m *Manager) Logout(ctx context.Context) error {
	m.clear()
	return errors.Wrap(m.store.Delete(ctx, Keys...), "clearing session")
}

// Refresh reloads the current account from the API and persists it.
func (m *Manager) Refresh(ctx context.Context) (account.User, error) {
	if _, ok := m.Current(); !ok {
		return account.User{}, ErrNotLoggedIn
	}
	var usr account.User
	if err := m.api.Get(ctx, "/auth/me", nil, &usr); err != nil {
		if apiclient.IsKind(err, apiclient.KindUnauthorized) {
			_ = m.Logout(ctx)
			return account.User{}, ErrNotLoggedIn
		}
		return account.User{}, errors.Wrap(err, "fetching current user")
	}
	data, err := json.Marshal(usr)
	if err != nil {
		return account.User{}, errors.Wrap(err, "encoding user")
	}
	if err := m.store.Set(ctx, map[string]string{KeyUser: string(data)}); err != nil {
		return account.User{}, errors.Wrap(err, "saving session")
	}

	m.mu.Lock()
	m.user = usr
	m.mu.Unlock()
	return usr, nil
}

// Current returns the logged-in account.
func (m *Manager) Current() (account.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.token != ""
}

func (m *Manager) Token() (tokenType, token string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokenType, m.token, m.token != ""
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token, m.tokenType, m.user = "", "", account.User{}
	m.mu.Unlock()
}

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}
