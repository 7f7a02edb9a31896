package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/shared"
)

type stubRepo struct {
	users    map[string]*User
	sessions map[string]uuid.UUID
	logins   int
}

func newStubRepo(users ...*User) *stubRepo {
	r := &stubRepo{users: map[string]*User{}, sessions: map[string]uuid.UUID{}}
	for _, u := range users {
		r.users[u.Email] = u
	}
	return r
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *stubRepo) FindByAuthID(ctx context.Context, authID uuid.UUID) (*User, error) {
	for _, u := range r.users {
		if u.AuthID == authID {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubRepo) RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	r.logins++
	return nil
}

func (r *stubRepo) CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	r.sessions[id] = userID
	return nil
}

func (r *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func testUser(t *testing.T, email, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	tenantID := uuid.New()
	return &User{
		ID:           uuid.New(),
		AuthID:       uuid.New(),
		TenantID:     &tenantID,
		Email:        email,
		Role:         string(authz.RoleAdmin),
		PasswordHash: string(hash),
		IsActive:     active,
	}
}

func newTestHandler(t *testing.T, repo Repository) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "affinet_session", time.Hour, false)
	csrf := shared.NewCSRFManager("test-secret")
	logger := slog.New(slog.DiscardHandler)
	h := NewHandler(logger, NewService(repo), sessions, csrf)
	return h, sessions
}

func doLogin(t *testing.T, h *Handler, sessions *shared.SessionManager, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(w, req.WithContext(ctx))
			require.NoError(t, sessions.Commit(req.Context(), w, sess))
		})
	})
	r.Route("/auth", h.MountRoutes)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "admin@acme.test", "correct horse", true)
	repo := newStubRepo(user)
	h, sessions := newTestHandler(t, repo)

	rec := doLogin(t, h, sessions, `{"email":"admin@acme.test","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UserID    string `json:"user_id"`
		Role      string `json:"role"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, user.ID.String(), resp.UserID)
	assert.Equal(t, "admin", resp.Role)
	assert.NotEmpty(t, resp.CSRFToken)
	assert.Equal(t, 1, repo.logins)
	assert.Len(t, repo.sessions, 1)
}

func TestLoginRotatesSessionID(t *testing.T) {
	user := testUser(t, "admin@acme.test", "correct horse", true)
	repo := newStubRepo(user)
	h, sessions := newTestHandler(t, repo)

	// A cookie value the client picked before logging in must not become the
	// id of the authenticated session.
	planted := &http.Cookie{Name: sessions.CookieName(), Value: "planted-session-id"}
	rec := doLogin(t, h, sessions, `{"email":"admin@acme.test","password":"correct horse"}`, planted)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, repo.sessions, 1)
	for id := range repo.sessions {
		assert.NotEqual(t, "planted-session-id", id)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "admin@acme.test", "correct horse", true)
	h, sessions := newTestHandler(t, newStubRepo(user))

	rec := doLogin(t, h, sessions, `{"email":"admin@acme.test","password":"battery staple"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginInactiveAccountIndistinguishable(t *testing.T) {
	user := testUser(t, "admin@acme.test", "correct horse", false)
	h, sessions := newTestHandler(t, newStubRepo(user))

	rec := doLogin(t, h, sessions, `{"email":"admin@acme.test","password":"correct horse"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	missing := doLogin(t, h, sessions, `{"email":"nobody@acme.test","password":"correct horse"}`)
	assert.Equal(t, missing.Code, rec.Code)
	assert.JSONEq(t, missing.Body.String(), rec.Body.String())
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	h, sessions := newTestHandler(t, newStubRepo())

	rec := doLogin(t, h, sessions, `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeRequiresPrincipal(t *testing.T) {
	h, _ := newTestHandler(t, newStubRepo())

	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithPrincipalResolvesActiveUser(t *testing.T) {
	user := testUser(t, "admin@acme.test", "correct horse", true)
	repo := newStubRepo(user)
	svc := NewService(repo)
	mw := Middleware{Service: svc, Logger: slog.New(slog.DiscardHandler)}

	var got authz.Principal
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = authz.PrincipalFromContext(r.Context())
	})

	sess := &shared.Session{ID: "s1"}
	sess.SetAuthID(user.AuthID.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	mw.WithPrincipal(next).ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, authz.RoleAdmin, got.Role)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, *user.TenantID, *got.TenantID)
}
