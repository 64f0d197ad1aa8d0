package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mimprep/profile-audit/internal/rbac"
)

func hash(t *testing.T, pw string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func testAccounts(t *testing.T) *Accounts {
	return NewAccounts(
		Account{Username: "admin", PassHash: hash(t, "hunter2"), Role: rbac.RoleAdmin},
		Account{Username: "analyst", PassHash: hash(t, "reader"), Role: rbac.RoleAnalyst},
		Account{Username: "disabled", Role: rbac.RoleAdmin},
	)
}

func login(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("secret")
	h := LoginHandler(a, testAccounts(t))

	rec := login(h, `{"username":"analyst","password":"reader"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, rbac.RoleAnalyst, resp.Role)
	assert.Contains(t, resp.Permissions, rbac.PermResultsExport)
	assert.Equal(t, int64(8*3600), resp.ExpiresIn)

	c, err := a.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "analyst", c.Sub)
	assert.Equal(t, rbac.RoleAnalyst, c.Role)

	assert.Equal(t, http.StatusUnauthorized, login(h, `{"username":"analyst","password":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(h, `{"username":"ghost","password":"reader"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(h, `{"username":"disabled","password":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, login(h, `{`).Code)
}

func TestLoginHandler_NotConfigured(t *testing.T) {
	h := LoginHandler(NewAuthService("secret"), NewAccounts(Account{Username: "admin"}))
	assert.Equal(t, http.StatusServiceUnavailable, login(h, `{"username":"admin","password":""}`).Code)
}

func TestParse_Rejects(t *testing.T) {
	a := NewAuthService("secret")
	tok, err := a.IssueJWT("admin", rbac.RoleAdmin)
	require.NoError(t, err)

	_, err = NewAuthService("other").Parse(tok)
	assert.Error(t, err, "wrong key")

	a.now = func() time.Time { return time.Now().Add(9 * time.Hour) }
	_, err = a.Parse(tok)
	assert.Error(t, err, "expired")

	_, err = NewAuthService("secret").Parse("not.a.token")
	assert.Error(t, err)
}

func protected(a *AuthService, mws ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(SubjectFromContext(r.Context()) + "/" + rbac.RoleFromContext(r.Context())))
	})
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return JWTMiddleware(a)(h)
}

func call(h http.Handler, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/results", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret")
	tok, err := a.IssueJWT("admin", rbac.RoleAdmin)
	require.NoError(t, err)
	h := protected(a)

	rec := call(h, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin/admin", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "garbage").Code)
}

func TestAttachRoleFromAccounts(t *testing.T) {
	a := NewAuthService("secret")
	accounts := testAccounts(t)

	// a token claiming admin for the analyst account is downgraded
	forged, err := a.IssueJWT("analyst", rbac.RoleAdmin)
	require.NoError(t, err)
	rec := call(protected(a, AttachRoleFromAccounts(accounts, false)), forged)
	assert.Equal(t, "analyst/analyst", rec.Body.String())

	ghost, err := a.IssueJWT("ghost", rbac.RoleAnalyst)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(protected(a, AttachRoleFromAccounts(accounts, false)), ghost).Code)
	assert.Equal(t, "ghost/analyst", call(protected(a, AttachRoleFromAccounts(accounts, true)), ghost).Body.String())
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("hunter2")
	require.NoError(t, err)
	acct, err := NewAccounts(Account{Username: "admin", PassHash: h, Role: rbac.RoleAdmin}).Verify("admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, acct.Role)

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
