package handler

import (
	"encoding/json"
	"net/http"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendCodeEnvelope wraps send-code responses. CodeDev and ExpiresAt are only
// filled in development mode.
type SendCodeEnvelope struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	CodeDev   string `json:"code_dev,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// VerifyCodeEnvelope wraps verify-code responses.
type VerifyCodeEnvelope struct {
	OK      bool   `json:"ok"`
	UserID  string `json:"user_id"`
	RoleSet string `json:"role_set"`
	Token   string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{OK: false, Error: msg})
}
