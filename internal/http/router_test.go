package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crowdwork/taskd/internal/domain"
	"github.com/crowdwork/taskd/internal/mail"
	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/internal/store/drivers/sqlite"
	"github.com/crowdwork/taskd/pkg/cryptox"
	"github.com/crowdwork/taskd/pkg/idx"
	"github.com/crowdwork/taskd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *Router
	store  *sqlite.Store
	signer *jwtx.HS256
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256([]byte("router-test-secret"), "taskd-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := &service.TokenService{Store: st}

	router := NewRouter(signer, "test", st, logger)
	router.AuthService = &service.AuthService{
		Store:  st,
		Tokens: tokens,
		Signer: signer,
		Mailer: mail.NewLogMailer(logger),
		Logger: logger,
		Issuer: "taskd-test",
	}
	router.ProjectService = &service.ProjectService{Store: st}
	router.TaskService = &service.TaskService{Store: st}
	router.NoteService = &service.NoteService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st, signer: signer}
}

func (e *testEnv) seedUser(t *testing.T, email string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("sup3r-secret")
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Confirmed:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) sessionFor(t *testing.T, userID string) string {
	t.Helper()

	claims := jwtx.NewSessionClaims(userID, "taskd-test", time.Hour, time.Now().UTC())
	token, err := e.signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:40000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/projects", "not-a-real-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "not authorized", errorBody(t, rec))
}

func TestSessionForDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.sessionFor(t, idx.New().String())

	rec := env.do(t, http.MethodGet, "/projects", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]string
		want string
	}{
		{
			name: "short password",
			body: map[string]string{
				"name": "A", "email": "a@example.com",
				"password": "short", "password_confirmation": "short",
			},
			want: "password must be at least 8 characters",
		},
		{
			name: "mismatched confirmation",
			body: map[string]string{
				"name": "A", "email": "a@example.com",
				"password": "long-enough", "password_confirmation": "different",
			},
			want: "passwords do not match",
		},
		{
			name: "bad email",
			body: map[string]string{
				"name": "A", "email": "not-an-email",
				"password": "long-enough", "password_confirmation": "long-enough",
			},
			want: "invalid email",
		},
		{
			name: "display-name email form",
			body: map[string]string{
				"name": "A", "email": "Bob <bob@example.com>",
				"password": "long-enough", "password_confirmation": "long-enough",
			},
			want: "invalid email",
		},
		{
			name: "dotless domain",
			body: map[string]string{
				"name": "A", "email": "bob@localhost",
				"password": "long-enough", "password_confirmation": "long-enough",
			},
			want: "invalid email",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/create-account", "", tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			require.Equal(t, tc.want, errorBody(t, rec))
		})
	}
}

func TestRequestCodeAlreadyConfirmed(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "settled@example.com")

	rec := env.do(t, http.MethodPost, "/auth/request-code", "",
		map[string]string{"email": user.Email})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "account is already confirmed", errorBody(t, rec))
}

func TestProjectAuthorizationChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	manager := env.seedUser(t, "manager@example.com")
	member := env.seedUser(t, "member@example.com")
	outsider := env.seedUser(t, "outsider@example.com")

	project, err := env.router.ProjectService.Create(ctx, manager.ID, "Backend", "ACME", "desc")
	require.NoError(t, err)
	require.NoError(t, env.router.ProjectService.AddMember(ctx, project, member.ID))

	managerTok := env.sessionFor(t, manager.ID)
	memberTok := env.sessionFor(t, member.ID)
	outsiderTok := env.sessionFor(t, outsider.ID)

	// Members and the manager can read the project.
	rec := env.do(t, http.MethodGet, "/projects/"+project.ID, memberTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// An outsider gets the same 404 as a nonexistent project would give.
	rec = env.do(t, http.MethodGet, "/projects/"+project.ID, outsiderTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "action not allowed", errorBody(t, rec))

	rec = env.do(t, http.MethodGet, "/projects/"+idx.New().String(), managerTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Mutations are manager-only, surfaced as 404 to members.
	update := map[string]string{
		"projectName": "Backend v2", "clientName": "ACME", "description": "desc",
	}
	rec = env.do(t, http.MethodPut, "/projects/"+project.ID, memberTok, update)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "action not allowed", errorBody(t, rec))

	rec = env.do(t, http.MethodPut, "/projects/"+project.ID, managerTok, update)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskMustBelongToProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	manager := env.seedUser(t, "manager@example.com")
	p1, err := env.router.ProjectService.Create(ctx, manager.ID, "One", "c", "d")
	require.NoError(t, err)
	p2, err := env.router.ProjectService.Create(ctx, manager.ID, "Two", "c", "d")
	require.NoError(t, err)

	task, err := env.router.TaskService.Create(ctx, p1.ID, "task", "desc")
	require.NoError(t, err)

	tok := env.sessionFor(t, manager.ID)

	rec := env.do(t, http.MethodGet, "/projects/"+p1.ID+"/tasks/"+task.ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same task through the wrong project resolves to 404.
	rec = env.do(t, http.MethodGet, "/projects/"+p2.ID+"/tasks/"+task.ID, tok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "action not allowed", errorBody(t, rec))
}

func TestStatusUpdateOpenToMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	manager := env.seedUser(t, "manager@example.com")
	member := env.seedUser(t, "member@example.com")

	p, err := env.router.ProjectService.Create(ctx, manager.ID, "Board", "c", "d")
	require.NoError(t, err)
	require.NoError(t, env.router.ProjectService.AddMember(ctx, p, member.ID))
	task, err := env.router.TaskService.Create(ctx, p.ID, "task", "desc")
	require.NoError(t, err)

	memberTok := env.sessionFor(t, member.ID)
	path := "/projects/" + p.ID + "/tasks/" + task.ID

	// Members can move status but not edit the task itself.
	rec := env.do(t, http.MethodPost, path+"/status", memberTok,
		map[string]string{"status": "inProgress"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, path+"/status", memberTok,
		map[string]string{"status": "nonsense"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPut, path, memberTok,
		map[string]string{"name": "renamed", "description": "desc"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoteDeletionAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	manager := env.seedUser(t, "manager@example.com")
	member := env.seedUser(t, "member@example.com")

	p, err := env.router.ProjectService.Create(ctx, manager.ID, "Board", "c", "d")
	require.NoError(t, err)
	require.NoError(t, env.router.ProjectService.AddMember(ctx, p, member.ID))
	task, err := env.router.TaskService.Create(ctx, p.ID, "task", "desc")
	require.NoError(t, err)
	note, err := env.router.NoteService.Create(ctx, task.ID, member.ID, "mine")
	require.NoError(t, err)

	notePath := "/projects/" + p.ID + "/tasks/" + task.ID + "/notes/" + note.ID

	rec := env.do(t, http.MethodDelete, notePath, env.sessionFor(t, manager.ID), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodDelete, notePath, env.sessionFor(t, member.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
}
