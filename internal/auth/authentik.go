package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"golang.org/x/oauth2"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/config"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// Session providers for single sign-on
const (
	ProviderAuthentik = "authentik"
	ProviderMock      = "mock"
)

const stateCookie = "oauth_state"

// AuthProvider is a common interface for single sign-on providers
type AuthProvider interface {
	LoginHandler(w http.ResponseWriter, r *http.Request)
	CallbackHandler(w http.ResponseWriter, r *http.Request)
	LogoutHandler(w http.ResponseWriter, r *http.Request)
}

// User represents an authenticated Authentik user
type User struct {
	ID       string
	Email    string
	Name     string
	Username string
	Groups   []string
}

// AuthentikAuth lets members of the admin group sign in as administrators
// through Authentik OAuth2/OIDC. Judges keep using access codes.
type AuthentikAuth struct {
	cfg          config.AuthentikConfig
	oauth2Config *oauth2.Config
	sessions     *SessionManager
	client       *http.Client
}

// NewAuthentikAuth creates a new Authentik authentication handler
func NewAuthentikAuth(cfg config.AuthentikConfig, sessions *SessionManager) *AuthentikAuth {
	return &AuthentikAuth{
		cfg: cfg,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  fmt.Sprintf("%s/application/o/authorize/", cfg.BaseURL),
				TokenURL: fmt.Sprintf("%s/application/o/token/", cfg.BaseURL),
			},
		},
		sessions: sessions,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginHandler initiates the OAuth2 login flow
func (a *AuthentikAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := generateState()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler handles the OAuth2 callback from Authentik
func (a *AuthentikAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != cookie.Value {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Warn("Authentik token exchange failed", "error", err)
		http.Error(w, "Failed to exchange token", http.StatusBadGateway)
		return
	}

	user, err := a.getUserInfo(r, token)
	if err != nil {
		logger.Warn("Authentik userinfo failed", "error", err)
		http.Error(w, "Failed to get user info", http.StatusBadGateway)
		return
	}

	if !slices.Contains(user.Groups, a.cfg.AdminGroup) {
		logger.Warn("SSO user is not an administrator", "user", user.Username, "group", a.cfg.AdminGroup)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	name := user.Name
	if name == "" {
		name = user.Username
	}
	if _, err := a.sessions.Create(w, name, models.RoleAdmin, ProviderAuthentik); err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	logger.Info("Admin signed in via Authentik", "user", user.Username)

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler ends the local session and the Authentik one
func (a *AuthentikAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(w, r)

	logoutURL := fmt.Sprintf("%s/application/o/%s/end-session/", a.cfg.BaseURL, a.cfg.ClientID)
	http.Redirect(w, r, logoutURL, http.StatusSeeOther)
}

func (a *AuthentikAuth) getUserInfo(r *http.Request, token *oauth2.Token) (*User, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, a.cfg.BaseURL+"/application/o/userinfo/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get user info: %s - %s", resp.Status, string(body))
	}

	var userInfo struct {
		Sub               string   `json:"sub"`
		Email             string   `json:"email"`
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Groups            []string `json:"groups"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &User{
		ID:       userInfo.Sub,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Username: userInfo.PreferredUsername,
		Groups:   userInfo.Groups,
	}, nil
}

// generateState generates a random state string for CSRF protection
func generateState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// MockAuth signs anyone in as an administrator. Development only.
type MockAuth struct {
	sessions *SessionManager
}

// NewMockAuth creates a new mock authentication handler
func NewMockAuth(sessions *SessionManager) *MockAuth {
	logger.Info("Using MOCK single sign-on for local development")
	return &MockAuth{sessions: sessions}
}

// LoginHandler auto-creates an admin session
func (m *MockAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := m.sessions.Create(w, "Dev Admin", models.RoleAdmin, ProviderMock); err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CallbackHandler is not needed for mock auth
func (m *MockAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler for mock auth
func (m *MockAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	m.sessions.Destroy(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
