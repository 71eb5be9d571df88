package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// SessionCookie carries the signed session token
const SessionCookie = "judging_session"

const issuer = "hackathon-judging"

var (
	// ErrSessionNotFound is returned when the request carries no live session
	ErrSessionNotFound = errors.New("session not found")
)

// Session is the identity behind one login. It is created at login, travels
// in the request context and is deleted on logout.
type Session struct {
	ID        string      `json:"-"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	Provider  string      `json:"provider"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// IsAdmin reports whether the session has admin privileges
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

// IsJudge reports whether the session belongs to a judge
func (s *Session) IsJudge() bool {
	return s != nil && s.Role == models.RoleJudge
}

type sessionClaims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues session cookies and keeps the registry of live
// sessions. A token is only honoured while its session is registered, so
// logout takes effect immediately.
type SessionManager struct {
	secret   []byte
	ttl      time.Duration
	secure   bool
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionManager creates a manager signing with secret. An empty secret
// gets a random one, which invalidates sessions on restart.
func NewSessionManager(secret string, ttl time.Duration, secureCookies bool) *SessionManager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("failed to generate session secret: %v", err))
		}
		logger.Warn("SESSION_SECRET not set, using a random per-process secret")
	}

	return &SessionManager{
		secret:   key,
		ttl:      ttl,
		secure:   secureCookies,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a session and writes its cookie
func (m *SessionManager) Create(w http.ResponseWriter, name string, role models.Role, provider string) (*Session, error) {
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      role,
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := sessionClaims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   name,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
	})

	return s, nil
}

// Lookup returns the live session behind the request cookie
func (m *SessionManager) Lookup(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	var claims sessionClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}

	m.mu.RLock()
	s, ok := m.sessions[claims.ID]
	m.mu.RUnlock()

	if !ok || m.now().After(s.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Destroy removes the request's session and clears the cookie
func (m *SessionManager) Destroy(w http.ResponseWriter, r *http.Request) {
	if s, err := m.Lookup(r); err == nil {
		m.mu.Lock()
		delete(m.sessions, s.ID)
		m.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Prune drops expired sessions from the registry
func (m *SessionManager) Prune() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunPruner prunes expired sessions every interval until ctx is cancelled
func (m *SessionManager) RunPruner(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Prune(); n > 0 {
				logger.Debug("Pruned expired sessions", "count", n)
			}
		}
	}
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by the auth middleware, if any
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// RequireSession rejects requests without a live session with 401
func (m *SessionManager) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Lookup(r)
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	}
}

// RequireRole rejects requests without a session (401) or with another role (403)
func (m *SessionManager) RequireRole(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).Role != role {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
