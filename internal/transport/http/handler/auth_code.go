package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-auth-code/internal/application/logincode"
)

// AuthCodeHandler handles the send-code / verify-code login flow.
type AuthCodeHandler struct {
	svc     logincode.Service
	devMode bool
}

func NewAuthCodeHandler(svc logincode.Service, devMode bool) *AuthCodeHandler {
	return &AuthCodeHandler{svc: svc, devMode: devMode}
}

// SendCode reads email from the body and role/ref from the query string.
func (h *AuthCodeHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	q := r.URL.Query()
	res, err := h.svc.SendCode(r.Context(), logincode.SendCodeRequest{
		Email: body.Email,
		Role:  q.Get("role"),
		Ref:   q.Get("ref"),
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	if h.devMode {
		writeJSON(w, http.StatusOK, SendCodeEnvelope{
			OK: true, Message: "code generated (dev)", CodeDev: res.Code, ExpiresAt: res.ExpiresAt,
		})
		return
	}
	writeJSON(w, http.StatusOK, SendCodeEnvelope{OK: true, Message: "code sent"})
}

func (h *AuthCodeHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req logincode.VerifyCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.VerifyCode(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyCodeEnvelope{
		OK: true, UserID: res.UserID, RoleSet: res.RoleSet, Token: res.Token,
	})
}

// decodeBody decodes a JSON body into v. An empty body leaves v zeroed so the
// service reports the missing fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
