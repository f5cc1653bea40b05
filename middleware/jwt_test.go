package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	bundb "github.com/mmacri/del-mar-equine-command/db"
	"github.com/mmacri/del-mar-equine-command/models"
)

var testKey = []byte("test-secret")

func testDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bundb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, bundb.CreateTables(context.Background(), db))
	return db
}

func signToken(t *testing.T, username, role string) string {
	t.Helper()

	claims := &Claims{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return token
}

func invoke(mw echo.MiddlewareFunc, token string) (error, echo.Context) {
	req := httptest.NewRequest(http.MethodGet, "/dm/horses", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	c := echo.New().NewContext(req, httptest.NewRecorder())
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return handler(c), c
}

func TestJWTSetsIdentity(t *testing.T) {
	db := testDB(t)
	user := &models.User{Username: "jane", Email: "jane@example.com",
		Role: models.RoleAdmin, Password: "x", CreatedAt: time.Now()}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	err, c := invoke(JWT(testKey, db), signToken(t, "jane", models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, "jane", c.Get("username"))
	assert.Equal(t, models.RoleAdmin, c.Get("role"))
}

// A token for a user that no longer exists in the store is rejected even
// though the signature is still valid.
func TestJWTRejectsDeletedUser(t *testing.T) {
	db := testDB(t)

	err, _ := invoke(JWT(testKey, db), signToken(t, "ghost", models.RoleAdmin))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, "unknown user", he.Message)
}

func TestJWTMissingHeader(t *testing.T) {
	db := testDB(t)

	err, _ := invoke(JWT(testKey, db), "")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestJWTBadSignature(t *testing.T) {
	db := testDB(t)

	claims := &Claims{Username: "jane", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("some-other-key"))
	require.NoError(t, err)

	err, _ = invoke(JWT(testKey, db), token)
	require.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	run := func(role string, mw echo.MiddlewareFunc) error {
		c := echo.New().NewContext(
			httptest.NewRequest(http.MethodPost, "/dm/horses", nil),
			httptest.NewRecorder())
		c.Set("role", role)
		return mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	}

	adminOnly := RequireRole(models.RoleAdmin)
	assert.NoError(t, run(models.RoleAdmin, adminOnly))

	err := run(models.RoleViewer, adminOnly)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)

	// Admin passes any role gate.
	viewerGate := RequireRole(models.RoleViewer)
	assert.NoError(t, run(models.RoleAdmin, viewerGate))
	assert.NoError(t, run(models.RoleViewer, viewerGate))
}
