package handler

import (
	"net/http"

	"github.com/go-auth-code/internal/config"
)

// HealthHandler handles liveness and configuration-debug endpoints.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler { return &HealthHandler{cfg: cfg} }

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DebugEnv reports which store settings are present and the table names in use.
// Secrets are reported as booleans only.
func (h *HealthHandler) DebugEnv(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"endpoint":       h.cfg.AWSEndpointURL != "",
		"project":        h.cfg.AWSRegion != "",
		"apiKey":         h.cfg.AWSAccessKeyID != "" && h.cfg.AWSSecretKey != "",
		"db":             h.cfg.AWSRegion,
		"collCodes":      h.cfg.DynamoTables.LoginCodes,
		"collProfiles":   h.cfg.DynamoTables.UserProfiles,
		"collIdentities": h.cfg.DynamoTables.Identities,
		"devMode":        h.cfg.DevMode,
		"rolePolicy":     h.cfg.RolePolicy,
		"signedTokens":   h.cfg.JWTEnabled(),
		"sendThrottle":   h.cfg.RedisURL != "",
	})
}
