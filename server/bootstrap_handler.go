package server

import (
	"encoding/json"
	"net/http"

	"github.com/xingkaijun/modernnav/configstore"
	"github.com/xingkaijun/modernnav/nav"
)

// BootstrapHandler serves GET /api/bootstrap: the full three-field snapshot,
// each field independently defaulted when missing or malformed. A store
// failure still returns a complete default structure so clients can render.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		rows, err := s.store.All(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("bootstrap: read store")
			s.writeJSON(w, http.StatusInternalServerError, s.bootstrapResponse(nav.DefaultSnapshot(), true,
				"Failed to load configuration, using defaults"))
			return
		}

		snapshot := nav.Snapshot{
			Categories:  nav.NormalizeCategories([]byte(rows[configstore.KeyCategories])),
			Background:  nav.NormalizeBackground(rows[configstore.KeyBackground]),
			Preferences: nav.NormalizePreferences([]byte(rows[configstore.KeyPrefs])),
		}
		authCode := rows[configstore.KeyAuthCode]
		isDefault := authCode == "" || authCode == s.config.GetDefaultAccessCode()

		s.writeJSON(w, http.StatusOK, s.bootstrapResponse(snapshot, isDefault, ""))
	}
}

func (s *Server) bootstrapResponse(snapshot nav.Snapshot, isDefaultCode bool, errMsg string) nav.BootstrapResponse {
	categories, err := json.Marshal(snapshot.Categories)
	if err != nil {
		s.log.Error().Err(err).Msg("bootstrap: marshal categories")
	}
	background, err := json.Marshal(snapshot.Background)
	if err != nil {
		s.log.Error().Err(err).Msg("bootstrap: marshal background")
	}
	prefs, err := json.Marshal(snapshot.Preferences)
	if err != nil {
		s.log.Error().Err(err).Msg("bootstrap: marshal prefs")
	}
	return nav.BootstrapResponse{
		Categories:    categories,
		Background:    background,
		Preferences:   prefs,
		IsDefaultCode: isDefaultCode,
		Error:         errMsg,
	}
}
