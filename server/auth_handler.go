package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/xingkaijun/modernnav/configstore"
	apperrors "github.com/xingkaijun/modernnav/internal/errors"
	"github.com/xingkaijun/modernnav/ratelimit"
	"github.com/xingkaijun/modernnav/token"
)

type authRequest struct {
	Action      string `json:"action"`
	Code        string `json:"code,omitempty"`
	CurrentCode string `json:"currentCode,omitempty"`
	NewCode     string `json:"newCode,omitempty"`
}

// AuthHandler serves POST /api/auth: login, refresh, update (access code
// rotation) and logout, multiplexed on the action field.
func (s *Server) AuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.authLimiter.Allow(ip) {
			s.writeRateLimited(w, s.authLimiter, ip)
			return
		}

		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action == "" {
			s.writeError(w, http.StatusBadRequest, apperrors.ErrInvalidData.Error())
			return
		}

		storedCode, err := s.storedCode(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("auth: read stored code")
			s.writeError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
			return
		}

		switch req.Action {
		case "login":
			s.handleLogin(w, req, storedCode)
		case "refresh":
			s.handleRefresh(w, r, storedCode)
		case "update":
			s.handleCodeUpdate(w, r, req, storedCode)
		case "logout":
			s.setRefreshCookie(w, "")
			s.writeJSON(w, http.StatusOK, tokenResponse{Success: true})
		default:
			s.writeError(w, http.StatusBadRequest, apperrors.ErrInvalidData.Error())
		}
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, req authRequest, storedCode string) {
	if req.Code == "" {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrInvalidCredentials.Error())
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Code), []byte(storedCode)) != 1 {
		s.log.Warn().Msg("auth: login failed")
		s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondWithTokens(w, storedCode)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, storedCode string) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		s.setRefreshCookie(w, "")
		s.writeError(w, http.StatusUnauthorized, apperrors.ErrInvalidToken.Error())
		return
	}

	// Verified against the current stored code: rotating the code revokes
	// every outstanding refresh credential.
	if !token.Verify(cookie.Value, storedCode, s.nowFunc()) {
		s.setRefreshCookie(w, "")
		s.writeError(w, http.StatusUnauthorized, apperrors.ErrInvalidToken.Error())
		return
	}

	s.respondWithTokens(w, storedCode)
}

func (s *Server) handleCodeUpdate(w http.ResponseWriter, r *http.Request, req authRequest, storedCode string) {
	bearer := bearerToken(r)
	if bearer == "" {
		s.writeError(w, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
		return
	}
	if !token.Verify(bearer, storedCode, s.nowFunc()) {
		s.writeError(w, http.StatusForbidden, apperrors.ErrUnauthorized.Error())
		return
	}
	if req.CurrentCode == "" || req.NewCode == "" {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrInvalidData.Error())
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.CurrentCode), []byte(storedCode)) != 1 {
		s.writeError(w, http.StatusForbidden, apperrors.ErrInvalidCredentials.Error())
		return
	}
	if len(req.NewCode) < 4 {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrWeakCode.Error())
		return
	}

	if err := s.store.Upsert(r.Context(), configstore.KeyAuthCode, req.NewCode); err != nil {
		s.log.Error().Err(err).Msg("auth: persist new code")
		s.writeError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
		return
	}

	// Sign the fresh pair with the new code so old tokens die with the old key.
	s.respondWithTokens(w, req.NewCode)
}

func (s *Server) respondWithTokens(w http.ResponseWriter, signingCode string) {
	now := s.nowFunc()
	accessToken, err := token.Generate(token.KindAccess, signingCode, now)
	if err != nil {
		s.log.Error().Err(err).Msg("auth: generate access token")
		s.writeError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
		return
	}
	refreshToken, err := token.Generate(token.KindRefresh, signingCode, now)
	if err != nil {
		s.log.Error().Err(err).Msg("auth: generate refresh token")
		s.writeError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
		return
	}

	s.setRefreshCookie(w, refreshToken)
	s.writeJSON(w, http.StatusOK, tokenResponse{Success: true, AccessToken: accessToken})
}

func (s *Server) writeRateLimited(w http.ResponseWriter, limiter *ratelimit.Limiter, ip string) {
	var resetMillis int64
	if resetAt, ok := limiter.ResetTime(ip); ok {
		resetMillis = resetAt.UnixMilli()
	}
	s.writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:     apperrors.ErrRateLimited.Error(),
		ResetTime: resetMillis,
	})
}

// storedCode reads the current access code, falling back to the configured
// default when none has been set yet.
func (s *Server) storedCode(ctx context.Context) (string, error) {
	code, err := s.store.Get(ctx, configstore.KeyAuthCode)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.config.GetDefaultAccessCode(), nil
	}
	if err != nil {
		return "", errors.Wrap(err, "[Server.storedCode] store.Get")
	}
	if code == "" {
		return s.config.GetDefaultAccessCode(), nil
	}
	return code, nil
}
