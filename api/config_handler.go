package api

import (
	"net/http"

	"github.com/seenimoa/stockpulse/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config   *config.Config         `json:"config"`
	Settings []config.SettingStatus `json:"settings"`
}

// handleGetConfig returns the running configuration with the source of
// each effective setting. It is read-only; nothing is persisted.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:   s.cfg,
			Settings: config.CheckSettings(s.cfg),
		},
	})
}

// handleGetSettings returns only the effective setting sources.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckSettings(s.cfg),
	})
}
