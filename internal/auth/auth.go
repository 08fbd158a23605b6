// Package auth gates the editing surface. The shared admin code is kept
// only as a bcrypt hash; a successful login yields an HS256 session token
// carried in an HttpOnly cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName = "igreja_session"
	roleAdmin  = "admin"
	issuer     = "igreja"
)

var (
	ErrInvalidCode   = errors.New("invalid admin code")
	ErrAdminDisabled = errors.New("admin access not configured")
	ErrInvalidToken  = errors.New("invalid session token")
	ErrShortSecret   = errors.New("session secret must be at least 32 bytes")
)

// Claims are the session token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New builds an authenticator from a bcrypt hash of the admin code. An
// empty hash disables admin access: every login fails with
// ErrAdminDisabled.
func New(codeHash string, secret []byte, ttl time.Duration) (*Authenticator, error) {
	if codeHash != "" {
		if _, err := bcrypt.Cost([]byte(codeHash)); err != nil {
			return nil, fmt.Errorf("admin code hash: %w", err)
		}
		if len(secret) < 32 {
			return nil, ErrShortSecret
		}
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{hash: []byte(codeHash), secret: secret, ttl: ttl, now: time.Now}, nil
}

// HashCode hashes a plaintext admin code for ADMIN_CODE_HASH.
func HashCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrInvalidCode
	}
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin code: %w", err)
	}
	return string(b), nil
}

func (a *Authenticator) Enabled() bool { return len(a.hash) > 0 }

// Login checks the admin code and returns a signed session token and its
// expiry.
func (a *Authenticator) Login(code string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(code)); err != nil {
		return "", time.Time{}, ErrInvalidCode
	}
	now := a.now()
	exp := now.Add(a.ttl)
	claims := Claims{
		Role: roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   roleAdmin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a session token and checks signature, expiry and role.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	if !a.Enabled() {
		return nil, ErrAdminDisabled
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != roleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie stores the session token in the response.
func SetCookie(w http.ResponseWriter, token string, exp time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

type ctxKey string

const adminKey ctxKey = "admin"

// IsAdmin reports whether the request carries a valid session.
func (a *Authenticator) IsAdmin(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	_, err = a.Verify(c.Value)
	return err == nil
}

// Middleware marks requests with a valid session in the context. It
// never rejects; RequireAdmin does.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.IsAdmin(r) {
			r = r.WithContext(context.WithValue(r.Context(), adminKey, true))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without a valid session with 401.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !AdminFromContext(r.Context()) && !a.IsAdmin(r) {
			http.Error(w, "admin session required", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// AdminFromContext reports whether Middleware saw a valid session.
func AdminFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(adminKey).(bool)
	return v
}
