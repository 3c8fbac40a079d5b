package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher obtains a fresh access token, typically from a refresh cookie
// held by the Auth Service.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Session holds the current access token of the signed-in user.
type Session struct {
	mu        sync.RWMutex
	token     string
	refresher Refresher
	leeway    time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewSession(token string, refresher Refresher, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		token:     token,
		refresher: refresher,
		leeway:    10 * time.Second,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) Logout() { s.SetToken("") }

// Token returns the access token to send, refreshing it first when it has
// already expired. After a failed refresh the session is signed out and the
// token is empty.
func (s *Session) Token(ctx context.Context) string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token != "" && s.refresher != nil && Expired(token, s.now(), s.leeway) {
		fresh, err := s.Refresh(ctx)
		if err != nil {
			return ""
		}
		return fresh
	}
	return token
}

// Refresh replaces the token through the Refresher. On failure the session
// is cleared so the caller has to sign in again.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	if s.refresher == nil {
		return "", fmt.Errorf("refresh: no refresher configured")
	}
	token, err := s.refresher.Refresh(ctx)
	if err != nil || token == "" {
		s.logger.Warn("session refresh failed, signing out", zap.Error(err))
		s.Logout()
		if err == nil {
			err = fmt.Errorf("refresh: empty access token")
		}
		return "", err
	}
	s.SetToken(token)
	s.logger.Debug("session refreshed")
	return token, nil
}

func (s *Session) CanRefresh() bool { return s.refresher != nil }

// HTTPRefresher calls GET {BaseURL}/api/auth/refresh and reads accessToken
// from the JSON reply.
type HTTPRefresher struct {
	BaseURL string
	Client  *http.Client
}

func (r *HTTPRefresher) Refresh(ctx context.Context) (string, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(r.BaseURL, "/")+"/api/auth/refresh", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"accessToken"`
		Message     string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || body.AccessToken == "" {
		if body.Message != "" {
			return "", fmt.Errorf("refresh: %s", body.Message)
		}
		return "", fmt.Errorf("refresh: status %d", resp.StatusCode)
	}
	return body.AccessToken, nil
}
