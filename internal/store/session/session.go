// Package session owns the authentication token lifecycle: load-on-start,
// login, signup, logout, and the "who am I" profile refresh. The token is
// persisted in local storage; the profile is always refetched.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anhthuvo/storefront/internal/api"
	"github.com/anhthuvo/storefront/internal/logging"
	"github.com/anhthuvo/storefront/internal/models"
	"github.com/anhthuvo/storefront/internal/storage"
)

// State tracks initial session loading. LoadFromStorage always leaves
// StateLoading, success or failure.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
)

// Manager is the session store. It implements api.TokenSource so both
// transports attach the current token as bearer credential.
type Manager struct {
	rest    *api.RestClient
	kv      storage.Repository
	log     logging.Logger
	storeID int

	mu     sync.RWMutex
	state  State
	token  string
	user   *models.Profile
	errMsg string
}

func NewManager(rest *api.RestClient, kv storage.Repository, log logging.Logger, storeID int) *Manager {
	return &Manager{
		rest:    rest,
		kv:      kv,
		log:     log,
		storeID: storeID,
		state:   StateUninitialized,
	}
}

// Token returns the current bearer token, or empty for anonymous sessions.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the authenticated profile, or nil.
func (m *Manager) User() *models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// IsAuthenticated is derived from the presence of a fetched profile, not
// from the token alone.
func (m *Manager) IsAuthenticated() bool {
	return m.User() != nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LoadFromStorage restores the persisted token and refetches the profile.
// Any failure is treated as an invalid session: the token is purged and the
// in-memory user cleared. The loading state always terminates.
func (m *Manager) LoadFromStorage(ctx context.Context) error {
	m.setState(StateLoading)
	defer m.setState(StateReady)

	raw, err := m.kv.Get(ctx, storage.KeyToken)
	if err != nil {
		return fmt.Errorf("reading persisted token: %w", err)
	}
	token := string(raw)
	if token == "" {
		return nil
	}

	if tokenExpired(token) {
		m.log.Info(ctx, "persisted token expired, purging")
		return m.purge(ctx)
	}

	m.setToken(token)

	var profile models.Profile
	if err := m.rest.Get(ctx, "V1/customers/me", &profile); err != nil {
		m.log.Warn(ctx, "profile fetch failed, treating session as invalid", "err", err)
		return m.purge(ctx)
	}

	m.mu.Lock()
	m.user = &profile
	m.mu.Unlock()
	return nil
}

// Login exchanges credentials for a token, persists it, and fetches the
// profile. The token is returned on success. ErrInvalidCredentials is
// returned when the backend rejects the pair; other failures propagate.
func (m *Manager) Login(ctx context.Context, email, password string) (string, error) {
	var token string
	err := m.rest.Post(ctx, "V1/integration/customer/token", map[string]string{
		"username": email,
		"password": password,
	}, &token)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("requesting token: %w", err)
	}

	if err := m.kv.Set(ctx, storage.KeyToken, []byte(token)); err != nil {
		return "", fmt.Errorf("persisting token: %w", err)
	}
	m.setToken(token)

	var profile models.Profile
	if err := m.rest.Get(ctx, "V1/customers/me", &profile); err != nil {
		return "", fmt.Errorf("fetching profile: %w", err)
	}

	m.mu.Lock()
	m.user = &profile
	m.mu.Unlock()
	return token, nil
}

// SignupInput is the account-creation form.
type SignupInput struct {
	Email      string
	Firstname  string
	Lastname   string
	Password   string
	Subscribed bool
}

// Signup creates an account. On backend rejection the error code is mapped
// to a fixed user-facing message, recorded as the manager's error value,
// and returned as *SignupError.
func (m *Manager) Signup(ctx context.Context, in SignupInput) (*models.Profile, error) {
	body := models.SignupRequest{
		Customer: models.SignupCustomer{
			Email:     in.Email,
			Firstname: in.Firstname,
			Lastname:  in.Lastname,
			StoreID:   m.storeID,
			ExtensionAttributes: models.SignupExtensionAttributes{
				IsSubscribed: in.Subscribed,
			},
		},
		Password: in.Password,
	}

	var profile models.Profile
	if err := m.rest.Post(ctx, "V1/customers", body, &profile); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			msg := friendlySignupMessage(apiErr)
			m.setErr(msg)
			return nil, &SignupError{Code: apiErr.Code, Message: msg}
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return &profile, nil
}

// Logout clears the token and the in-memory user. No remote endpoint is
// called.
func (m *Manager) Logout(ctx context.Context) error {
	return m.purge(ctx)
}

// CheckEmailAvailable reports whether an email is free for signup.
// Failures are logged and reported as unavailable (swallow policy).
func (m *Manager) CheckEmailAvailable(ctx context.Context, email string) bool {
	var available bool
	err := m.rest.Post(ctx, "V1/customers/isEmailAvailable", map[string]string{
		"customerEmail": email,
	}, &available)
	if err != nil {
		m.log.Warn(ctx, "email availability check failed", "err", err)
		return false
	}
	return available
}

// Err returns the current user-facing error message, empty when none.
func (m *Manager) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

// DismissErr clears the error value. The caller decides when: typically on
// the next user interaction.
func (m *Manager) DismissErr() {
	m.setErr("")
}

// DismissErrAfter schedules DismissErr after d and returns a stop function
// cancelling the timer. This replaces the old hidden global-click debounce
// with an explicit caller-managed timer.
func (m *Manager) DismissErrAfter(d time.Duration) (stop func()) {
	t := time.AfterFunc(d, m.DismissErr)
	return func() { t.Stop() }
}

func (m *Manager) purge(ctx context.Context) error {
	if err := m.kv.Delete(ctx, storage.KeyToken); err != nil {
		m.log.Error(ctx, "failed to delete persisted token", "err", err)
	}
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	return nil
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setErr(msg string) {
	m.mu.Lock()
	m.errMsg = msg
	m.mu.Unlock()
}

// tokenExpired inspects tokens that happen to be JWTs and reports whether
// their exp has passed. Opaque tokens are left for the backend to judge.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
