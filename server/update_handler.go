package server

import (
	"encoding/json"
	"net/http"

	"github.com/xingkaijun/modernnav/configstore"
	apperrors "github.com/xingkaijun/modernnav/internal/errors"
	"github.com/xingkaijun/modernnav/nav"
	"github.com/xingkaijun/modernnav/token"
)

type updateResponse struct {
	Success bool `json:"success"`
}

// UpdateHandler serves POST /api/update: an authenticated, rate-limited
// upsert of one config field.
func (s *Server) UpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.updateLimiter.Allow(ip) {
			s.writeRateLimited(w, s.updateLimiter, ip)
			return
		}

		bearer := bearerToken(r)
		if bearer == "" {
			s.writeError(w, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
			return
		}

		storedCode, err := s.storedCode(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("update: read stored code")
			s.writeError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
			return
		}
		if !token.Verify(bearer, storedCode, s.nowFunc()) {
			s.writeError(w, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		var payload nav.UpdatePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			var maxErr *http.MaxBytesError
			if apperrors.As(err, &maxErr) {
				s.writeJSON(w, http.StatusBadRequest, errorResponse{
					Error:   apperrors.ErrDataTooLarge.Error(),
					MaxSize: "100KB",
				})
				return
			}
			s.writeError(w, http.StatusBadRequest, apperrors.ErrInvalidData.Error())
			return
		}
		if payload.Type == "" || !configstore.KeyAllowed(payload.Type) {
			s.writeError(w, http.StatusBadRequest, apperrors.ErrInvalidData.Error())
			return
		}
		if len(payload.Data) == 0 || string(payload.Data) == "null" {
			s.writeError(w, http.StatusBadRequest, apperrors.ErrInvalidData.Error())
			return
		}

		// A JSON string is stored unwrapped, anything else as its serialized
		// form, mirroring how the client reads values back.
		value := string(payload.Data)
		var str string
		if err := json.Unmarshal(payload.Data, &str); err == nil {
			value = str
		}

		if len(value) > maxValueBytes {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   apperrors.ErrDataTooLarge.Error(),
				MaxSize: "100KB",
			})
			return
		}

		if err := s.store.Upsert(r.Context(), payload.Type, value); err != nil {
			s.log.Error().Err(err).Str("type", payload.Type).Msg("update: upsert")
			s.writeError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
			return
		}

		s.writeJSON(w, http.StatusOK, updateResponse{Success: true})
	}
}
