package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/taskboard/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
)

// HandleAuthMiddleware admits requests carrying a valid access token in
// the Authorization header or the access_token cookie. An expired token
// is renewed from the refresh_token cookie when the client has one.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	accessToken, err := extractAccessToken(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("no access token")
		abort(c, newUnauthorizedError(err.Error()))
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	claims, err := h.auth.ParseJWTToken(accessToken)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Error().
				Err(err).
				Msg("failed to parse token")
			abort(c, newUnauthorizedError(errInvalidAccessToken.Error()))
			return
		}

		refreshToken, cookieErr := c.Cookie(refreshTokenCookie)
		if cookieErr != nil {
			h.logger.Error().
				Err(err).
				Msg("access token expired")
			abort(c, newUnauthorizedError(jwt.ErrTokenExpired.Error()))
			return
		}

		result, refreshErr := h.auth.Refresh(c, services.RefreshParams{
			RefreshToken: refreshToken,
			Fingerprint:  fingerprint,
		})
		if refreshErr != nil {
			h.logger.Error().
				Err(refreshErr).
				Msg("failed to refresh expired token")
			abort(c, newUnauthorizedError(refreshErr.Error()))
			return
		}

		now := time.Now()
		setAccessTokenCookie(c, result.AccessToken, result.AccessTokenExpiresAt.Sub(now))
		setRefreshTokenCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt.Sub(now))

		claims, err = h.auth.ParseJWTToken(result.AccessToken)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to parse fresh token")
			abort(c, newUnauthorizedError(errInvalidAccessToken.Error()))
			return
		}
	}

	session, err := h.sessions.GetSessionByID(c, claims.Subject)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.logger.Warn().
				Str("session_id", claims.Subject).
				Msg("session not found")
			abort(c, newUnauthorizedError(services.ErrSessionNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to fetch session")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	if fingerprint != session.Fingerprint {
		h.logger.Error().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		abort(c, newUnauthorizedError(services.ErrFingerprintMismatch.Error()))
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Next()
}

func extractAccessToken(c *gin.Context) (string, error) {
	const authHeader = "Authorization"
	if header := c.GetHeader(authHeader); header != "" {
		const bearerPrefix = "Bearer"
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
			return "", errors.New("invalid authorization header")
		}
		return parts[1], nil
	}

	token, err := c.Cookie(accessTokenCookie)
	if err != nil || token == "" {
		return "", errMissingAccessToken
	}
	return token, nil
}
