package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/metrics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// ProviderAccessCode marks sessions opened with an access code
const ProviderAccessCode = "access_code"

// ErrInvalidCode is returned for an unknown access code
var ErrInvalidCode = errors.New("invalid access code")

type hashedCode struct {
	hash []byte
	name string
	role models.Role
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AccessCodeAuth logs judges and admins in with the codes from the event
// roster. Codes are kept only as bcrypt hashes and login attempts are rate
// limited per client address.
type AccessCodeAuth struct {
	sessions *SessionManager
	codes    []hashedCode

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

// NewAccessCodeAuth hashes codes with the given bcrypt cost
func NewAccessCodeAuth(codes []models.AccessCode, sessions *SessionManager, perSecond float64, burst, cost int) (*AccessCodeAuth, error) {
	hashed := make([]hashedCode, 0, len(codes))
	for _, c := range codes {
		h, err := bcrypt.GenerateFromPassword([]byte(normalizeCode(c.Code)), cost)
		if err != nil {
			return nil, err
		}
		hashed = append(hashed, hashedCode{hash: h, name: c.Name, role: c.Role})
	}

	return &AccessCodeAuth{
		sessions: sessions,
		codes:    hashed,
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
	}, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Authenticate resolves a code to the identity it grants
func (a *AccessCodeAuth) Authenticate(code string) (string, models.Role, error) {
	code = normalizeCode(code)
	if code == "" {
		return "", "", ErrInvalidCode
	}

	for _, c := range a.codes {
		if bcrypt.CompareHashAndPassword(c.hash, []byte(code)) == nil {
			return c.name, c.role, nil
		}
	}
	return "", "", ErrInvalidCode
}

// Allow reports whether the client may attempt another login
func (a *AccessCodeAuth) Allow(client string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	cl, ok := a.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(a.limit, a.burst)}
		a.limiters[client] = cl
	}
	cl.lastSeen = now

	// Forget clients idle for a while so the map stays bounded
	for ip, other := range a.limiters {
		if now.Sub(other.lastSeen) > 10*time.Minute {
			delete(a.limiters, ip)
		}
	}

	return cl.limiter.Allow()
}

// LoginHandler handles POST /auth/login {"code": "..."}
func (a *AccessCodeAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !a.Allow(clientIP(r)) {
		metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		logger.Warn("Login rate limited", "client", clientIP(r))
		http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name, role, err := a.Authenticate(req.Code)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		logger.Info("Login rejected", "client", clientIP(r))
		http.Error(w, "Invalid access code", http.StatusUnauthorized)
		return
	}

	s, err := a.sessions.Create(w, name, role, ProviderAccessCode)
	if err != nil {
		logger.Error("Failed to create session", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	logger.Info("Login", "name", name, "role", role)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

// LogoutHandler handles POST /auth/logout
func (a *AccessCodeAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a.sessions.Destroy(w, r)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// MeHandler handles GET /auth/me
func (a *AccessCodeAuth) MeHandler(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Lookup(r)
	if err != nil {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
