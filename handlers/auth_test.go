package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gantzhq/gantz/internal/identity"
	"github.com/gantzhq/gantz/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	password string

	signedOutAccess  string
	signedOutRefresh string
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*identity.Grant, error) {
	if password != f.password {
		return nil, identity.ErrInvalidCredentials
	}
	return &identity.Grant{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		ExpiresIn:    900,
		User:         &models.User{Sub: "sub-1", Email: email},
	}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, refresh string) (*identity.Grant, error) {
	if refresh != "refresh-a@b.c" {
		return nil, identity.ErrInvalidRefresh
	}
	return &identity.Grant{AccessToken: "access-2", RefreshToken: refresh, ExpiresIn: 900}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, access, refresh string) error {
	f.signedOutAccess, f.signedOutRefresh = access, refresh
	return nil
}

func authRouter(a Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAuthHandler(a).Register(r.Group("/"), nil)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_Success(t *testing.T) {
	r := authRouter(&fakeAuth{password: "pw"})

	w := postJSON(t, r, "/auth/login", LoginRequest{Email: "a@b.c", Password: "pw"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var g identity.Grant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, "access-a@b.c", g.AccessToken)
	assert.Equal(t, "refresh-a@b.c", g.RefreshToken)
	require.NotNil(t, g.User)
	assert.Equal(t, "a@b.c", g.User.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	r := authRouter(&fakeAuth{password: "pw"})
	w := postJSON(t, r, "/auth/login", LoginRequest{Email: "a@b.c", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), identity.ErrInvalidCredentials.Error())
}

func TestLogin_MissingFields(t *testing.T) {
	r := authRouter(&fakeAuth{password: "pw"})
	w := postJSON(t, r, "/auth/login", map[string]string{"email": "a@b.c"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Limited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusTooManyRequests) }
	NewAuthHandler(&fakeAuth{password: "pw"}).Register(r.Group("/"), deny)

	w := postJSON(t, r, "/auth/login", LoginRequest{Email: "a@b.c", Password: "pw"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRefresh(t *testing.T) {
	r := authRouter(&fakeAuth{})

	w := postJSON(t, r, "/auth/refresh", map[string]string{"refresh_token": "refresh-a@b.c"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access-2")

	w = postJSON(t, r, "/auth/refresh", map[string]string{"refresh_token": "stale"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_PassesBearerAndRefresh(t *testing.T) {
	a := &fakeAuth{}
	r := authRouter(a)

	h := http.Header{}
	h.Set("Authorization", "Bearer tok-1")
	w := postJSON(t, r, "/auth/logout", map[string]string{"refresh_token": "r-1"}, h)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-1", a.signedOutAccess)
	assert.Equal(t, "r-1", a.signedOutRefresh)
}
