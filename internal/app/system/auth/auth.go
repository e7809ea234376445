// Package auth issues and verifies the bearer tokens that protect the API,
// and provides the middleware that loads the authenticated user into the
// request context.
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
	"go.uber.org/zap"
)

// Token verification errors. The strict middleware maps these onto the
// distinguished 401 messages the API promises.
var (
	ErrNoToken         = errors.New("no token provided")
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token expired")
	ErrInactiveAccount = errors.New("account is deactivated")
	ErrNotRefreshToken = errors.New("not a refresh token")
)

// refreshTokenType tags refresh-token claims so an access token can never
// be replayed against the refresh endpoint, and vice versa.
const refreshTokenType = "refresh"

// Claims is the payload carried by both token kinds. TokenType is empty
// for access tokens and "refresh" for refresh tokens.
type Claims struct {
	TokenType string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// AuthUser is the authenticated user injected into the request context.
// It is loaded fresh on each request so deactivation and tier changes
// take effect immediately.
type AuthUser struct {
	ID    string
	Name  string
	Email string
	Tier  string
}

// UserFetcher loads the user referenced by a verified token. It returns
// ErrInactiveAccount for deactivated accounts and any lookup failure
// otherwise; a missing user is reported as ErrInvalidToken.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*AuthUser, error)
}

// TokenManager issues token pairs and runs the auth middleware.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	fetcher    UserFetcher
	log        *zap.Logger
}

// NewTokenManager builds a TokenManager. The secret must be at least 32
// bytes; shorter secrets are rejected so a weak dev value cannot slip
// into production unnoticed.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret is %d bytes; provide at least 32", len(secret))
	}
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        logger,
	}, nil
}

// SetUserFetcher wires the store-backed user loader. Must be called before
// the middleware handles requests.
func (m *TokenManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// TokenPair is what the auth endpoints hand to clients.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// IssuePair mints an access token and a refresh token for userID.
func (m *TokenManager) IssuePair(userID string) (TokenPair, error) {
	now := time.Now()

	access, err := m.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := m.sign(Claims{
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(m.accessTTL.Seconds()),
	}, nil
}

func (m *TokenManager) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyAccess parses and verifies an access token, rejecting refresh
// tokens presented in its place.
func (m *TokenManager) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType == refreshTokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh parses and verifies a refresh token, enforcing the type
// discriminator.
func (m *TokenManager) VerifyRefresh(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != refreshTokenType {
		return nil, ErrNotRefreshToken
	}
	return claims, nil
}

func (m *TokenManager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

/* Request-context plumbing */

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*AuthUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*AuthUser)
	return u, ok
}

func withUser(r *http.Request, u *AuthUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user directly into the request context.
// Test helper; bypasses token verification.
func WithTestUser(r *http.Request, u *AuthUser) *http.Request {
	return withUser(r, u)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return h
}

// resolveUser verifies the bearer token on r and loads its user.
func (m *TokenManager) resolveUser(r *http.Request) (*AuthUser, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, ErrNoToken
	}
	claims, err := m.VerifyAccess(raw)
	if err != nil {
		return nil, err
	}
	if m.fetcher == nil {
		return nil, ErrInvalidToken
	}
	return m.fetcher.FetchUser(r.Context(), claims.Subject)
}

// RequireAuth is the strict middleware: it fails the request with a 401
// whose message distinguishes missing, invalid, and expired tokens and
// deactivated accounts.
func (m *TokenManager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.resolveUser(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// OptionalAuth loads the user when a valid token is present and silently
// proceeds unauthenticated on any failure.
func (m *TokenManager) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := m.resolveUser(r); err == nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, err error) {
	msg := ErrInvalidToken.Error()
	switch {
	case errors.Is(err, ErrNoToken):
		msg = ErrNoToken.Error()
	case errors.Is(err, ErrExpiredToken):
		msg = ErrExpiredToken.Error()
	case errors.Is(err, ErrInactiveAccount):
		msg = ErrInactiveAccount.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, "{\"error\":%q}\n", msg)
}
