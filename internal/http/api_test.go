package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-board/internal/auth"
	"comment-board/internal/cache"
	"comment-board/internal/repository/sqlite"
	"comment-board/internal/service"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := sqlite.NewUserRepository(db)
	comments := sqlite.NewCommentRepository(db)
	require.NoError(t, users.Init(context.Background()))
	require.NoError(t, comments.Init(context.Background()))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	userService := service.NewUserService(users, cache.Disabled{}, logger)
	commentService := service.NewCommentService(comments, cache.Disabled{}, logger)

	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	router := gin.New()
	handler := NewHandler(userService, commentService, tokens, false, logger)
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, name, username, password string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"name": name, "username": username, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func loginUser(t *testing.T, router *gin.Engine, username, password string) *http.Cookie {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth-token" && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set auth-token cookie")
	return nil
}

func expiredToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		UserID:   "user-1",
		Username: "alice",
		Role:     "user",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestRegisterLoginCommentFlow(t *testing.T) {
	router := newTestRouter(t)

	registerUser(t, router, "Alice", "alice", "pw1")
	session := loginUser(t, router, "alice", "pw1")

	assert.True(t, session.HttpOnly)
	assert.Equal(t, "/", session.Path)

	w := doJSON(t, router, http.MethodPost, "/api/comments", gin.H{"text": "hello"}, session)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/comments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "hello", listed[0].Text)
	assert.Equal(t, "alice", listed[0].Author.Username)
}

func TestLoginFailureSetsNoCookie(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", gin.H{
		"username": "nobody", "password": "pw1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestRegisterConflictAndValidation(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Other", "username": "alice", "password": "pw2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/register", gin.H{
		"name": "NoPassword", "username": "np",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentMutationsRequireOwnership(t *testing.T) {
	router := newTestRouter(t)

	registerUser(t, router, "Alice", "alice", "pw1")
	registerUser(t, router, "Bob", "bob", "pw2")
	alice := loginUser(t, router, "alice", "pw1")
	bob := loginUser(t, router, "bob", "pw2")

	w := doJSON(t, router, http.MethodPost, "/api/comments", gin.H{"text": "hello"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	var created CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// unauthenticated
	w = doJSON(t, router, http.MethodPost, "/api/comments", gin.H{"text": "anon"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// not the author
	w = doJSON(t, router, http.MethodPut, "/api/comments/1", gin.H{"text": "hijacked"}, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/api/comments/1", nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// missing target
	w = doJSON(t, router, http.MethodPut, "/api/comments/999", gin.H{"text": "x"}, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// author succeeds
	w = doJSON(t, router, http.MethodPut, "/api/comments/1", gin.H{"text": "hello edited"}, alice)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/comments", nil)
	var listed []CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, "hello edited", listed[0].Text)
	assert.Equal(t, created.CreatedAt, listed[0].CreatedAt)

	w = doJSON(t, router, http.MethodDelete, "/api/comments/1", nil, alice)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouteGuardTable(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")
	session := loginUser(t, router, "alice", "pw1")
	expired := &http.Cookie{Name: "auth-token", Value: expiredToken(t)}

	t.Run("no token, protected route redirects to login", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/dashboard", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("no token, other routes pass", func(t *testing.T) {
		for _, path := range []string{"/", "/login", "/register", "/healthz"} {
			w := doJSON(t, router, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})

	t.Run("valid token, auth route redirects home", func(t *testing.T) {
		for _, path := range []string{"/login", "/register"} {
			w := doJSON(t, router, http.MethodGet, path, nil, session)
			assert.Equal(t, http.StatusFound, w.Code, path)
			assert.Equal(t, "/", w.Header().Get("Location"))
		}
	})

	t.Run("invalid token, auth route clears cookie and passes", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/login", nil, expired)
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, w.Result().Cookies())
		cleared := w.Result().Cookies()[0]
		assert.Equal(t, "auth-token", cleared.Name)
		assert.Empty(t, cleared.Value)
	})

	t.Run("invalid token, protected route clears cookie and redirects", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/dashboard", nil, expired)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		require.NotEmpty(t, w.Result().Cookies())
		assert.Empty(t, w.Result().Cookies()[0].Value)
	})

	t.Run("valid token, protected route passes", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/dashboard", nil, session)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestDashboardAndProfile(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")
	session := loginUser(t, router, "alice", "pw1")

	w := doJSON(t, router, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/dashboard", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Alice", profile.Name)
	assert.Zero(t, profile.CommentCount)

	w = doJSON(t, router, http.MethodPut, "/api/profile", gin.H{
		"name": "Alice B.", "username": "aliceb",
	}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/dashboard", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Alice B.", profile.Name)
	assert.Equal(t, "aliceb", profile.Username)
}

func TestProfileConflictAndWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")
	registerUser(t, router, "Bob", "bob", "pw2")
	session := loginUser(t, router, "alice", "pw1")

	w := doJSON(t, router, http.MethodPut, "/api/profile", gin.H{
		"name": "Alice", "username": "bob",
	}, session)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/profile", gin.H{
		"name": "Alice", "username": "alice",
		"current_password": "wrong", "new_password": "pw9",
	}, session)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")
	registerUser(t, router, "Bob", "bob", "pw2")
	alice := loginUser(t, router, "alice", "pw1")
	bob := loginUser(t, router, "bob", "pw2")

	w := doJSON(t, router, http.MethodPost, "/api/comments", gin.H{"text": "mine"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/comments", gin.H{"text": "bob's"}, bob)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/account", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Result().Cookies())
	assert.Empty(t, w.Result().Cookies()[0].Value, "session cookie cleared after account deletion")

	w = doJSON(t, router, http.MethodGet, "/api/comments", nil)
	var listed []CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "bob's", listed[0].Text)

	// the already-issued token is still cryptographically valid; the
	// second delete now hits a missing row
	w = doJSON(t, router, http.MethodDelete, "/api/account", nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")
	session := loginUser(t, router, "alice", "pw1")

	w := doJSON(t, router, http.MethodPost, "/api/auth/logout", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Result().Cookies())
	assert.Empty(t, w.Result().Cookies()[0].Value)
}

func TestMe(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice", "pw1")
	session := loginUser(t, router, "alice", "pw1")

	w := doJSON(t, router, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/me", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	var identity IdentityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &identity))
	assert.Equal(t, "alice", identity.Username)
	assert.NotEmpty(t, identity.ID)
}
