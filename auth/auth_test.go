package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testIdentity = Identity{Username: "alice", Email: "alice@example.com", Role: "user"}

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hashed)

	assert.True(t, CheckPassword("s3cret", hashed))
	assert.False(t, CheckPassword("wrong", hashed))
	assert.False(t, CheckPassword("s3cret", "not-a-bcrypt-hash"))
}

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 24*time.Hour)

	token, err := tm.Generate(testIdentity)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := tm.ParseAndValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, claims.Identity())
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, "bookstore", claims.Issuer)
}

func TestTokenExpiry(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	ttl := 24 * time.Hour
	tm := NewTokenManager("test-secret", ttl).WithClock(func() time.Time { return issuedAt })

	token, err := tm.Generate(testIdentity)
	require.NoError(t, err)

	t.Run("just before expiry", func(t *testing.T) {
		at := tm.WithClock(func() time.Time { return issuedAt.Add(ttl - time.Second) })
		_, err := at.ParseAndValidateToken(token)
		assert.NoError(t, err)
	})

	t.Run("just after expiry", func(t *testing.T) {
		at := tm.WithClock(func() time.Time { return issuedAt.Add(ttl + time.Second) })
		_, err := at.ParseAndValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("before issue", func(t *testing.T) {
		at := tm.WithClock(func() time.Time { return issuedAt.Add(-time.Minute) })
		_, err := at.ParseAndValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestParseTokenFailures(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	foreign, err := other.Generate(testIdentity)
	require.NoError(t, err)

	_, err = tm.ParseAndValidateToken(foreign)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = tm.ParseAndValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = tm.ParseAndValidateToken("")
	assert.Error(t, err)
}

func newFilteredContainer(filters ...restful.FilterFunction) *restful.Container {
	ws := new(restful.WebService)
	ws.Path("/secure").Produces(restful.MIME_JSON)
	rb := ws.GET("").To(func(req *restful.Request, resp *restful.Response) {
		claims, ok := ClaimsFrom(req)
		if !ok {
			resp.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = resp.WriteHeaderAndJson(http.StatusOK, claims.Identity(), restful.MIME_JSON)
	})
	for _, f := range filters {
		rb = rb.Filter(f)
	}
	ws.Route(rb)

	c := restful.NewContainer()
	c.Add(ws)
	return c
}

func serve(c *restful.Container, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	c.ServeHTTP(w, req)
	return w
}

func TestAuthFilter(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	c := newFilteredContainer(AuthFilter(tm))

	token, err := tm.Generate(testIdentity)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := serve(c, "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)

		var got Identity
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, testIdentity, got)
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(c, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token is missing")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := serve(c, "Basic "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid authorization header format"}`, w.Body.String())
	})

	t.Run("tampered token", func(t *testing.T) {
		w := serve(c, "Bearer "+token+"x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	c := newFilteredContainer(AuthFilter(tm), RequireRole("admin"))

	userToken, err := tm.Generate(testIdentity)
	require.NoError(t, err)
	adminToken, err := tm.Generate(Identity{Username: "root", Email: "root@example.com", Role: "admin"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(c, "").Code)
	assert.Equal(t, http.StatusForbidden, serve(c, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusOK, serve(c, "Bearer "+adminToken).Code)
}
