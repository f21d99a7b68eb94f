// Package auth gates the dashboard behind a single configured user.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"platinum/internal/cache"
	applog "platinum/internal/log"
	"platinum/internal/metrics"
)

const (
	DefaultCookieName = "platinum_session"
	CSRFField         = "csrf_token"

	ModeBcrypt = "bcrypt"
	ModePlain  = "plain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCSRF        = errors.New("invalid csrf token")
)

type Config struct {
	User         string
	Password     string
	PasswordHash string
	SessionTTL   time.Duration
	CookieSecure bool
	CookieName   string
	MaxSessions  int
}

// Session is one logged-in browser.
type Session struct {
	ID        string
	User      string
	CSRF      string
	CreatedAt time.Time
}

type Authenticator struct {
	user       string
	hash       []byte
	plain      []byte
	ttl        time.Duration
	secure     bool
	cookieName string
	sessions   *cache.LRUCache[Session]
	metrics    *metrics.Metrics
	logger     *applog.Logger
	now        func() time.Time
}

// New builds an Authenticator. A bcrypt hash takes precedence over a plain
// password when both are configured.
func New(cfg Config, m *metrics.Metrics, logger *applog.Logger) (*Authenticator, error) {
	if strings.TrimSpace(cfg.User) == "" {
		return nil, errors.New("auth user is required")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	a := &Authenticator{
		user:       cfg.User,
		ttl:        cfg.SessionTTL,
		secure:     cfg.CookieSecure,
		cookieName: cfg.CookieName,
		metrics:    m,
		logger:     logger.WithComponent(applog.ComponentAuth),
		now:        time.Now,
	}
	switch {
	case cfg.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("invalid password hash: %w", err)
		}
		a.hash = []byte(cfg.PasswordHash)
	case cfg.Password != "":
		a.plain = []byte(cfg.Password)
	default:
		return nil, errors.New("a password or password hash is required")
	}
	if a.ttl <= 0 {
		a.ttl = 12 * time.Hour
	}
	if a.cookieName == "" {
		a.cookieName = DefaultCookieName
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 256
	}
	a.sessions = cache.NewLRUCache[Session](maxSessions, a.ttl)
	return a, nil
}

// Sessions exposes the session store for registration with a cache.Manager.
func (a *Authenticator) Sessions() cache.Cleaner { return a.sessions }

// Mode reports how the password is verified, for display.
func (a *Authenticator) Mode() string {
	if a.hash != nil {
		return ModeBcrypt
	}
	return ModePlain
}

// CheckCredentials compares in constant time for the user name and the
// plain password; bcrypt does its own.
func (a *Authenticator) CheckCredentials(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	var passOK bool
	if a.hash != nil {
		passOK = bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), a.plain) == 1
	}
	return userOK && passOK
}

// Login verifies the credentials, opens a session and sets its cookie.
func (a *Authenticator) Login(ctx context.Context, w http.ResponseWriter, user, password string) (Session, error) {
	if !a.CheckCredentials(user, password) {
		a.metrics.Login(false)
		a.logger.WarnContext(ctx, "Login failed", applog.FieldOperation, applog.OpLogin)
		return Session{}, ErrInvalidCredentials
	}
	s := Session{
		ID:        uuid.NewString(),
		User:      a.user,
		CSRF:      uuid.NewString(),
		CreatedAt: a.now(),
	}
	a.sessions.Set(s.ID, s)
	http.SetCookie(w, a.cookie(s.ID, int(a.ttl.Seconds())))
	a.metrics.Login(true)
	a.logger.InfoContext(ctx, "Login succeeded", applog.FieldUser, s.User, applog.FieldOperation, applog.OpLogin)
	return s, nil
}

// Logout ends the request's session, if any, and clears the cookie.
func (a *Authenticator) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if s, ok := a.SessionFrom(r); ok {
		a.sessions.Delete(s.ID)
		a.logger.InfoContext(ctx, "Logout", applog.FieldUser, s.User, applog.FieldOperation, applog.OpLogout)
	}
	http.SetCookie(w, a.cookie("", -1))
}

// SessionFrom returns the live session named by the request cookie.
func (a *Authenticator) SessionFrom(r *http.Request) (Session, bool) {
	c, err := r.Cookie(a.cookieName)
	if err != nil || c.Value == "" {
		return Session{}, false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return Session{}, false
	}
	return a.sessions.Get(c.Value)
}

func (a *Authenticator) IsAuthenticated(r *http.Request) bool {
	_, ok := a.SessionFrom(r)
	return ok
}

// VerifyCSRF checks the form token against the session.
func (a *Authenticator) VerifyCSRF(r *http.Request, s Session) error {
	got := r.PostFormValue(CSRFField)
	if got == "" {
		got = r.Header.Get("X-CSRF-Token")
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.CSRF)) != 1 {
		return ErrInvalidCSRF
	}
	return nil
}

func (a *Authenticator) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     a.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// HashPassword returns a bcrypt hash suitable for DASHBOARD_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
