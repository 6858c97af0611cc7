package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/services"
)

// ErrLoginRequired means the user has to log in or sign up before the
// board can be shown.
var ErrLoginRequired = errors.New("login required")

// AuthAPI is the part of the HTTP client the gate drives.
type AuthAPI interface {
	Signup(ctx context.Context, email, password string) (*client.Tokens, error)
	Login(ctx context.Context, email, password string) (*client.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*client.Tokens, error)
	Logout(ctx context.Context) error
}

type Gate struct {
	logger zerolog.Logger
	api    AuthAPI
	store  *Store
	now    func() time.Time
}

func NewGate(logger zerolog.Logger, api AuthAPI, store *Store) *Gate {
	return &Gate{
		logger: logger,
		api:    api,
		store:  store,
		now:    time.Now,
	}
}

// IsAuthenticated reports whether a session is stored and its access
// token has not expired yet.
func (g *Gate) IsAuthenticated() bool {
	tokens, ok := g.store.Tokens()
	if !ok || tokens.AccessToken == "" {
		return false
	}
	return g.now().Before(accessTokenExpiry(tokens))
}

func (g *Gate) UserID() string {
	tokens, _ := g.store.Tokens()
	return tokens.UserID
}

func (g *Gate) Login(ctx context.Context, email, password string) error {
	tokens, err := g.api.Login(ctx, email, password)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to login")
		return err
	}

	return g.save(tokens, "logged in")
}

func (g *Gate) Signup(ctx context.Context, email, password string) error {
	tokens, err := g.api.Signup(ctx, email, password)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to sign up")
		return err
	}

	return g.save(tokens, "signed up")
}

// Logout ends the session on the server if it can and always forgets
// it locally. It returns ErrLoginRequired unless the local file could
// not be removed.
func (g *Gate) Logout(ctx context.Context) error {
	if _, ok := g.store.Tokens(); ok {
		if err := g.api.Logout(ctx); err != nil {
			g.logger.Warn().
				Err(err).
				Msg("failed to logout on server")
		}
	}

	if err := g.store.Clear(); err != nil {
		g.logger.Error().
			Err(err).
			Str("path", g.store.Path()).
			Msg("failed to clear session")
		return err
	}

	g.logger.Info().Msg("logged out")
	return ErrLoginRequired
}

// Require lets an authenticated user through. An expired access token
// is refreshed while the refresh token is still valid; otherwise the
// stored session is dropped and ErrLoginRequired is returned. Network
// failures are returned as is and keep the session.
func (g *Gate) Require(ctx context.Context) error {
	if g.IsAuthenticated() {
		return nil
	}
	return g.Refresh(ctx)
}

// Refresh rotates the stored session regardless of the access token's
// expiry. It fails the same way Require does.
func (g *Gate) Refresh(ctx context.Context) error {
	tokens, ok := g.store.Tokens()
	if !ok || tokens.RefreshToken == "" || !g.now().Before(tokens.RefreshTokenExpiresAt) {
		g.logger.Debug().Msg("no usable session")
		return g.drop()
	}

	refreshed, err := g.api.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrNetwork) {
			g.logger.Error().
				Err(err).
				Msg("failed to refresh session")
			return err
		}

		g.logger.Warn().
			Err(err).
			Msg("session refresh rejected")
		return g.drop()
	}

	return g.save(refreshed, "refreshed session")
}

func (g *Gate) save(tokens *client.Tokens, msg string) error {
	if err := g.store.Save(tokens); err != nil {
		g.logger.Error().
			Err(err).
			Str("path", g.store.Path()).
			Msg("failed to save session")
		return err
	}

	g.logger.Info().
		Str("user_id", tokens.UserID).
		Msg(msg)
	return nil
}

func (g *Gate) drop() error {
	if err := g.store.Clear(); err != nil {
		return err
	}
	return ErrLoginRequired
}

// accessTokenExpiry reads exp from the token without verifying it; the
// client has no signing key. The expiry the server reported is the
// fallback.
func accessTokenExpiry(tokens client.Tokens) time.Time {
	claims := new(jwt.RegisteredClaims)
	_, _, err := jwt.NewParser().ParseUnverified(tokens.AccessToken, claims)
	if err != nil || claims.ExpiresAt == nil {
		return tokens.AccessTokenExpiresAt
	}
	return claims.ExpiresAt.Time
}

// IsLoginRequired reports whether err should send the user back to the
// login surface.
func IsLoginRequired(err error) bool {
	return errors.Is(err, ErrLoginRequired) || errors.Is(err, services.ErrUnauthenticated)
}
