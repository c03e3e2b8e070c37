package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"motoverse/internal/models"
	"motoverse/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidCredentials is surfaced to the login form; the user stays on the
// login view.
var ErrInvalidCredentials = errors.New("invalid email or password")

// SessionStore persists the admin session across restarts.
type SessionStore interface {
	SaveSession(ctx context.Context, payload []byte, ttl time.Duration) error
	LoadSession(ctx context.Context) ([]byte, error)
	DeleteSession(ctx context.Context) error
}

// Manager owns the admin session lifecycle: sign-in against the hosted auth
// service, restore from the session store at startup, sign-out. The session
// is an explicit object handed to whoever needs it, not ambient state.
type Manager struct {
	mu      sync.RWMutex
	session models.Session

	baseURL string
	apiKey  string
	store   SessionStore
	http    *http.Client
	logger  *zap.Logger
}

// NewManager creates a session manager against the auth service.
func NewManager(baseURL, apiKey string, store SessionStore) *Manager {
	return &Manager{
		baseURL: baseURL,
		apiKey:  apiKey,
		store:   store,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  util.GetLogger(),
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		Email string `json:"email"`
	} `json:"user"`
}

// refreshWindow is how close to expiry a session may get before the next
// gated request exchanges the refresh token for a new access token.
const refreshWindow = time.Minute

// exchange posts to the token endpoint and installs the resulting session.
// Both the password and refresh_token grants go through here.
func (m *Manager) exchange(ctx context.Context, grantType string, payload map[string]string) (models.Session, error) {
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/token?grant_type=%s", m.baseURL, grantType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", m.apiKey)

	res, err := m.http.Do(req)
	if err != nil {
		return models.Session{}, fmt.Errorf("auth service unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnauthorized {
		return models.Session{}, ErrInvalidCredentials
	}
	if res.StatusCode != http.StatusOK {
		return models.Session{}, fmt.Errorf("auth service error: %s", res.Status)
	}

	var tok tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	session := models.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Email:        tok.User.Email,
		ExpiresAt:    time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}

	m.mu.Lock()
	if session.Email == "" {
		session.Email = m.session.Email
	}
	m.session = session
	m.mu.Unlock()

	m.persist(ctx, session)
	return session, nil
}

// SignIn exchanges credentials for a session and persists it.
func (m *Manager) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	session, err := m.exchange(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return models.Session{}, err
	}
	m.logger.Info("Admin signed in", zap.String("email", session.Email))
	return session, nil
}

// EnsureFresh reports whether a live session exists, exchanging the refresh
// token for a new access token first when the current one is expired or
// inside the refresh window. A rejected refresh token signs the admin out.
func (m *Manager) EnsureFresh(ctx context.Context) bool {
	session := m.Session()
	if session.AccessToken == "" {
		return false
	}
	if time.Until(session.ExpiresAt) > refreshWindow {
		return true
	}
	if session.RefreshToken == "" {
		return session.Valid()
	}

	refreshed, err := m.exchange(ctx, "refresh_token", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			m.logger.Warn("Refresh token rejected, signing out")
			m.SignOut(ctx)
			return false
		}
		m.logger.Warn("Session refresh failed", zap.Error(err))
		return session.Valid()
	}

	m.logger.Info("Admin session refreshed", zap.String("email", refreshed.Email))
	return true
}

// SignOut clears the session locally and best-effort revokes it remotely.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	session := m.session
	m.session = models.Session{}
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.DeleteSession(ctx); err != nil {
			m.logger.Warn("Failed to clear persisted session", zap.Error(err))
		}
	}

	if session.AccessToken == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/logout", nil)
	if err != nil {
		return
	}
	req.Header.Set("apikey", m.apiKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	if res, err := m.http.Do(req); err == nil {
		res.Body.Close()
	}
	m.logger.Info("Admin signed out")
}

// Restore loads a persisted session at startup. Missing or expired sessions
// leave the manager signed out without error.
func (m *Manager) Restore(ctx context.Context) {
	if m.store == nil {
		return
	}

	payload, err := m.store.LoadSession(ctx)
	if err != nil {
		m.logger.Warn("Failed to load persisted session", zap.Error(err))
		return
	}
	if len(payload) == 0 {
		return
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		m.logger.Warn("Corrupt persisted session discarded", zap.Error(err))
		return
	}
	if !session.Valid() {
		return
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	m.logger.Info("Admin session restored", zap.String("email", session.Email))
}

// Session returns the current session; zero value when signed out.
func (m *Manager) Session() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Authenticated reports whether a live admin session exists.
func (m *Manager) Authenticated() bool {
	return m.Session().Valid()
}

func (m *Manager) persist(ctx context.Context, session models.Session) {
	if m.store == nil {
		return
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := m.store.SaveSession(ctx, payload, ttl); err != nil {
		m.logger.Warn("Failed to persist session", zap.Error(err))
	}
}
