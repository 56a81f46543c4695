package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-auth-code/internal/application/logincode"
	"github.com/go-auth-code/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockCodeSvc struct{ mock.Mock }

func (m *mockCodeSvc) SendCode(ctx context.Context, req logincode.SendCodeRequest) (*logincode.SendCodeResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*logincode.SendCodeResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCodeSvc) VerifyCode(ctx context.Context, req logincode.VerifyCodeRequest) (*logincode.VerifyCodeResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*logincode.VerifyCodeResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// --- SendCode ---

func TestSendCode_QueryRoleAndRef(t *testing.T) {
	svc := &mockCodeSvc{}
	svc.On("SendCode", mock.Anything, logincode.SendCodeRequest{Email: "a@b.com", Role: "transportador", Ref: "r1"}).
		Return(&logincode.SendCodeResult{Code: "482913", ExpiresAt: 1700000000000}, nil)
	h := NewAuthCodeHandler(svc, true)

	r := httptest.NewRequest(http.MethodPost, "/auth/send-code?role=transportador&ref=r1", bytes.NewBufferString(`{"email":"a@b.com"}`))
	rr := httptest.NewRecorder()
	h.SendCode(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp SendCodeEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "482913", resp.CodeDev)
	assert.Equal(t, int64(1700000000000), resp.ExpiresAt)
	svc.AssertExpectations(t)
}

func TestSendCode_ProductionHidesCode(t *testing.T) {
	svc := &mockCodeSvc{}
	svc.On("SendCode", mock.Anything, mock.Anything).Return(&logincode.SendCodeResult{Code: "482913", ExpiresAt: 1}, nil)
	h := NewAuthCodeHandler(svc, false)

	r := httptest.NewRequest(http.MethodPost, "/auth/send-code", bytes.NewBufferString(`{"email":"a@b.com"}`))
	rr := httptest.NewRecorder()
	h.SendCode(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeMap(t, rr)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "code sent", body["message"])
	assert.NotContains(t, body, "code_dev")
	assert.NotContains(t, body, "expires_at")
}

func TestSendCode_InvalidBody(t *testing.T) {
	h := NewAuthCodeHandler(&mockCodeSvc{}, true)
	r := httptest.NewRequest(http.MethodPost, "/auth/send-code", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.SendCode(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendCode_EmptyBodyReachesService(t *testing.T) {
	svc := &mockCodeSvc{}
	svc.On("SendCode", mock.Anything, logincode.SendCodeRequest{}).
		Return(nil, domain.Reject(domain.ErrBadRequest, "email is required"))
	h := NewAuthCodeHandler(svc, true)

	r := httptest.NewRequest(http.MethodPost, "/auth/send-code", nil)
	rr := httptest.NewRecorder()
	h.SendCode(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"email is required"}`, rr.Body.String())
}

func TestSendCode_Throttled(t *testing.T) {
	svc := &mockCodeSvc{}
	svc.On("SendCode", mock.Anything, mock.Anything).Return(nil, logincode.ErrThrottled)
	h := NewAuthCodeHandler(svc, true)

	rr := httptest.NewRecorder()
	h.SendCode(rr, httptest.NewRequest(http.MethodPost, "/auth/send-code", bytes.NewBufferString(`{"email":"a@b.com"}`)))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestSendCode_InternalErrorEchoesMessage(t *testing.T) {
	svc := &mockCodeSvc{}
	svc.On("SendCode", mock.Anything, mock.Anything).Return(nil, errors.New("store login code: ResourceNotFoundException"))
	h := NewAuthCodeHandler(svc, true)

	rr := httptest.NewRecorder()
	h.SendCode(rr, httptest.NewRequest(http.MethodPost, "/auth/send-code", bytes.NewBufferString(`{"email":"a@b.com"}`)))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeMap(t, rr)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "store login code: ResourceNotFoundException", body["error"])
}

// --- VerifyCode ---

func TestVerifyCode_HappyPath(t *testing.T) {
	svc := &mockCodeSvc{}
	svc.On("VerifyCode", mock.Anything, logincode.VerifyCodeRequest{Email: "a@b.com", Code: "482913", Role: "transportador"}).
		Return(&logincode.VerifyCodeResult{UserID: "u1", RoleSet: "transportador", Token: "ok-u1-1"}, nil)
	h := NewAuthCodeHandler(svc, true)

	r := httptest.NewRequest(http.MethodPost, "/auth/verify-code",
		bytes.NewBufferString(`{"email":"a@b.com","code":"482913","role":"transportador"}`))
	rr := httptest.NewRecorder()
	h.VerifyCode(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"user_id":"u1","role_set":"transportador","token":"ok-u1-1"}`, rr.Body.String())
	svc.AssertExpectations(t)
}

func TestVerifyCode_DomainFailures(t *testing.T) {
	cases := map[string]error{
		"no code found":                     logincode.ErrNoCode,
		"code expired":                      logincode.ErrCodeExpired,
		"invalid code":                      logincode.ErrCodeInvalid,
		"user not found, request a new code": logincode.ErrUserNotFound,
	}
	for msg, svcErr := range cases {
		t.Run(msg, func(t *testing.T) {
			svc := &mockCodeSvc{}
			svc.On("VerifyCode", mock.Anything, mock.Anything).Return(nil, svcErr)
			h := NewAuthCodeHandler(svc, true)

			rr := httptest.NewRecorder()
			h.VerifyCode(rr, httptest.NewRequest(http.MethodPost, "/auth/verify-code",
				bytes.NewBufferString(`{"email":"a@b.com","code":"1"}`)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decodeMap(t, rr)
			assert.Equal(t, msg, body["error"])
		})
	}
}

func TestVerifyCode_StoreConflictAndNotFoundAre500(t *testing.T) {
	cases := map[string]error{
		"conflict":  fmt.Errorf("apply profile: profile u1 updated concurrently: %w", domain.ErrConflict),
		"not found": fmt.Errorf("load identity: %w", domain.ErrNotFound),
	}
	for name, svcErr := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &mockCodeSvc{}
			svc.On("VerifyCode", mock.Anything, mock.Anything).Return(nil, svcErr)
			h := NewAuthCodeHandler(svc, true)

			rr := httptest.NewRecorder()
			h.VerifyCode(rr, httptest.NewRequest(http.MethodPost, "/auth/verify-code", bytes.NewBufferString(`{}`)))
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			body := decodeMap(t, rr)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, svcErr.Error(), body["error"])
		})
	}
}

func TestVerifyCode_NonStringRoleRejected(t *testing.T) {
	svc := &mockCodeSvc{}
	h := NewAuthCodeHandler(svc, true)

	rr := httptest.NewRecorder()
	h.VerifyCode(rr, httptest.NewRequest(http.MethodPost, "/auth/verify-code",
		bytes.NewBufferString(`{"email":"a@b.com","code":"482913","role":1}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"invalid request body"}`, rr.Body.String())
	svc.AssertNotCalled(t, "VerifyCode", mock.Anything, mock.Anything)
}
