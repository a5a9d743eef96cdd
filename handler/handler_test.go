// handler/handler_test.go
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"noxa-api/common"
	"noxa-api/logger"
	"noxa-api/model"
	"noxa-api/repository"
	"noxa-api/service"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type handlerFixture struct {
	tokens *service.TokenService
	auth   *AuthHandler
	push   *PushHandler
	store  *repository.MemoryStore
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "noxa-api",
	})
	require.NoError(t, err)
	store := repository.NewMemoryStore()
	sessions := service.NewSessionService(store, tokens, "digest")
	authSvc := service.NewAuthService(store, sessions, service.NewCredentialVerifier(bcrypt.MinCost))
	pushSvc := service.NewPushService(store, nil, service.PushOptions{PublicKey: "vapid-public"})
	return &handlerFixture{
		tokens: tokens,
		auth:   NewAuthHandler(authSvc),
		push:   NewPushHandler(pushSvc),
		store:  store,
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func serve(h func(http.ResponseWriter, *http.Request) *common.AppError, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ErrorHandlingMiddleware(h).ServeHTTP(rr, req)
	return rr
}

func withPrincipal(req *http.Request, id string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), PrincipalIDKey, id))
}

func registerUser(t *testing.T, f *handlerFixture) model.AuthResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", jsonBody(t, map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "password123",
	}))
	rr := serve(f.auth.Register, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res model.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	f := newHandlerFixture(t)
	res := registerUser(t, f)
	assert.Equal(t, "ada_lovelace", res.User.Username)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	t.Run("duplicate is 409", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{
			"username": "someone", "email": "ada@example.com", "password": "password123",
		}))
		assert.Equal(t, http.StatusConflict, serve(f.auth.Register, req).Code)
	})

	t.Run("invalid body is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"email":"not-an-email"}`))
		assert.Equal(t, http.StatusBadRequest, serve(f.auth.Register, req).Code)
	})

	t.Run("login wrong password is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, model.LoginRequest{Email: "ada@example.com", Password: "wrong-password"}))
		assert.Equal(t, http.StatusUnauthorized, serve(f.auth.Login, req).Code)
	})

	t.Run("login unknown email is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, model.LoginRequest{Email: "nobody@example.com", Password: "password123"}))
		assert.Equal(t, http.StatusNotFound, serve(f.auth.Login, req).Code)
	})

	t.Run("login success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, model.LoginRequest{Email: "ADA@example.com", Password: "password123"}))
		rr := serve(f.auth.Login, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"accessToken"`)
		assert.NotContains(t, rr.Body.String(), "passwordHash")
	})
}

func TestAuthHandler_RefreshAndLogout(t *testing.T) {
	f := newHandlerFixture(t)
	res := registerUser(t, f)

	refresh := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, model.RefreshRequest{RefreshToken: token}))
		return serve(f.auth.Refresh, req)
	}

	rr := refresh(res.RefreshToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pair))

	assert.Equal(t, http.StatusUnauthorized, refresh(res.RefreshToken).Code)
	assert.Equal(t, http.StatusUnauthorized, refresh(pair.AccessToken).Code)

	logout := httptest.NewRequest(http.MethodPost, "/", jsonBody(t, model.RefreshRequest{RefreshToken: pair.RefreshToken}))
	assert.Equal(t, http.StatusNoContent, serve(f.auth.Logout, logout).Code)
	empty := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusNoContent, serve(f.auth.Logout, empty).Code)

	assert.Equal(t, http.StatusUnauthorized, refresh(pair.RefreshToken).Code)
}

func TestAuthMiddleware(t *testing.T) {
	f := newHandlerFixture(t)
	res := registerUser(t, f)

	protected := AuthMiddleware(f.tokens)(ErrorHandlingMiddleware(f.auth.Me))

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + res.AccessToken, http.StatusUnauthorized},
		{"refresh token", "Bearer " + res.RefreshToken, http.StatusUnauthorized},
		{"access token", "Bearer " + res.AccessToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)
			assert.Equal(t, tc.code, rr.Code)
		})
	}
}

func TestPushHandler(t *testing.T) {
	f := newHandlerFixture(t)
	res := registerUser(t, f)

	t.Run("public key", func(t *testing.T) {
		rr := serve(f.push.PublicKey, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"publicKey":"vapid-public","enabled":false}`, rr.Body.String())
	})

	t.Run("subscribe wrapped and bare", func(t *testing.T) {
		wrapped := withPrincipal(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(
			`{"subscription":{"endpoint":"https://push.example/1","keys":{"p256dh":"k","auth":"a"}}}`)), res.User.ID)
		assert.Equal(t, http.StatusCreated, serve(f.push.Subscribe, wrapped).Code)

		bare := withPrincipal(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(
			`{"endpoint":"https://push.example/2","expirationTime":null,"keys":{"p256dh":"k","auth":"a"}}`)), res.User.ID)
		assert.Equal(t, http.StatusCreated, serve(f.push.Subscribe, bare).Code)

		subs, err := f.store.ListPushSubscriptions(context.Background(), res.User.ID)
		require.NoError(t, err)
		assert.Len(t, subs, 2)
	})

	t.Run("subscribe invalid", func(t *testing.T) {
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(
			`{"endpoint":"https://push.example/3","keys":{"p256dh":"","auth":"a"}}`)), res.User.ID)
		assert.Equal(t, http.StatusBadRequest, serve(f.push.Subscribe, req).Code)
	})

	t.Run("unsubscribe unknown principal", func(t *testing.T) {
		req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/", nil), "ghost")
		assert.Equal(t, http.StatusNotFound, serve(f.push.Unsubscribe, req).Code)
	})

	t.Run("unsubscribe all", func(t *testing.T) {
		req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/", nil), res.User.ID)
		assert.Equal(t, http.StatusNoContent, serve(f.push.Unsubscribe, req).Code)
		subs, err := f.store.ListPushSubscriptions(context.Background(), res.User.ID)
		require.NoError(t, err)
		assert.Empty(t, subs)
	})
}

type capturingNotifier struct {
	mu     sync.Mutex
	events []model.NotificationEvent
	target []string
}

func (c *capturingNotifier) Dispatch(event model.NotificationEvent, principalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	c.target = append(c.target, principalID)
}

func TestNotificationHandler_Publish(t *testing.T) {
	n := &capturingNotifier{}
	h := NewNotificationHandler(n)

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(
		`{"type":"task_created","itemType":"task","item":{"id":"t1","title":"Write"}}`)), "p1")
	assert.Equal(t, http.StatusAccepted, serve(h.Publish, req).Code)

	// An unknown broadcast field is ignored; the event still targets the caller.
	req = withPrincipal(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(
		`{"type":"note_created","broadcast":true}`)), "p1")
	assert.Equal(t, http.StatusAccepted, serve(h.Publish, req).Code)

	req = withPrincipal(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(
		`{"type":"task_created","itemType":"invoice"}`)), "p1")
	assert.Equal(t, http.StatusBadRequest, serve(h.Publish, req).Code)

	require.Len(t, n.events, 2)
	assert.Equal(t, []string{"p1", "p1"}, n.target)
	assert.Equal(t, "t1", n.events[0].Item.ID)
}

func TestFromServiceError(t *testing.T) {
	cases := map[error]int{
		service.ErrInvalidInput:       http.StatusBadRequest,
		service.ErrUnauthorized:       http.StatusUnauthorized,
		service.ErrInvalidCredentials: http.StatusUnauthorized,
		service.ErrNotFound:           http.StatusNotFound,
		service.ErrConflict:           http.StatusConflict,
		errors.New("boom"):            http.StatusInternalServerError,
	}
	for err, code := range cases {
		assert.Equal(t, code, fromServiceError(err, "fallback").Code, err.Error())
	}
}
