package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// SessionCookie is the cookie carrying the signed session token. It is the
// name jwtauth.TokenFromCookie looks for.
const SessionCookie = "jwt"

// Role is the access level granted by a login.
type Role string

const (
	RoleAdmin   Role = "admin"
	RolePremium Role = "premium"
)

// AuthConfig configures password logins and session tokens.
type AuthConfig struct {
	AdminPassword   string
	PremiumPassword string // empty disables premium logins
	Secret          string
	TTL             time.Duration
	SecureCookie    bool
}

// Auth maps passwords to roles and issues HS256 session cookies.
type Auth struct {
	jwt *jwtauth.JWTAuth
	cfg AuthConfig
	now func() time.Time
}

// NewAuth creates an Auth from cfg.
func NewAuth(cfg AuthConfig) (*Auth, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("admin password is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Auth{
		jwt: jwtauth.New("HS256", []byte(cfg.Secret), nil),
		cfg: cfg,
		now: time.Now,
	}, nil
}

// Authenticate returns the role unlocked by password.
func (a *Auth) Authenticate(password string) (Role, bool) {
	if password == "" {
		return "", false
	}
	if secretEqual(password, a.cfg.AdminPassword) {
		return RoleAdmin, true
	}
	if a.cfg.PremiumPassword != "" && secretEqual(password, a.cfg.PremiumPassword) {
		return RolePremium, true
	}
	return "", false
}

func secretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SignIn issues a session token for role and stores it in the session cookie.
func (a *Auth) SignIn(w http.ResponseWriter, role Role) error {
	expires := a.now().Add(a.cfg.TTL)
	claims := map[string]interface{}{
		"role": string(role),
		"jti":  uuid.New().String(),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, expires)

	_, token, err := a.jwt.Encode(claims)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SignOut expires the session cookie.
func (a *Auth) SignOut(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Verifier decodes the session cookie of every request into its context.
// Requests without a valid token pass through anonymously.
func (a *Auth) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verify(a.jwt, jwtauth.TokenFromCookie)
}

// RoleFromContext returns the role of a verified session, or "" when the
// request is anonymous or its token is invalid.
func RoleFromContext(ctx context.Context) Role {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return ""
	}
	role, _ := claims["role"].(string)
	switch Role(role) {
	case RoleAdmin, RolePremium:
		return Role(role)
	default:
		return ""
	}
}

// Allows reports whether r satisfies one of roles. Admin satisfies every role.
func (r Role) Allows(roles ...Role) bool {
	if r == "" {
		return false
	}
	if r == RoleAdmin {
		return true
	}
	for _, want := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// RequireRole lets through requests whose session role satisfies roles and
// hands every other request to denied.
func RequireRole(denied http.HandlerFunc, roles ...Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RoleFromContext(r.Context()).Allows(roles...) {
				denied(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
