package server

import (
	"encoding/json"
	"net/http"

	"github.com/xingkaijun/modernnav/token"
)

const refreshCookieName = "refresh_token"

// errorResponse is the machine-readable error envelope. ResetTime carries the
// rate-limit window end as epoch milliseconds when set.
type errorResponse struct {
	Error     string `json:"error"`
	ResetTime int64  `json:"resetTime,omitempty"`
	MaxSize   string `json:"maxSize,omitempty"`
}

type tokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// setRefreshCookie arms (or, with an empty token, clears) the HTTP-only
// refresh credential scoped to the auth endpoint.
func (s *Server) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	maxAge := int(token.RefreshTTL.Seconds())
	if refreshToken == "" {
		maxAge = -1 // expire immediately
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/api/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.GetEnv() == "PROD", // Only secure in production
		SameSite: http.SameSiteStrictMode,
	})
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
}

// bearerToken extracts the Authorization bearer credential, empty when absent.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
