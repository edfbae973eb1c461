package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/pkg/httpx"
	"github.com/crowdwork/taskd/pkg/jwtx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService    *service.AuthService
	ProjectService *service.ProjectService
	TaskService    *service.TaskService
	NoteService    *service.NoteService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProjects()
	r.registerTasks()
	r.registerTeam()
	r.registerNotes()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// session, sessionMember and sessionManager are the reusable tails of the
// authorization chain.
func (r *Router) session() []httpx.Middleware {
	return []httpx.Middleware{
		httpx.AuthnMiddleware(r.verifier),
		r.requireUser,
	}
}

func (r *Router) sessionMember() []httpx.Middleware {
	return append(r.session(), r.resolveProject, r.requireMembership)
}

func (r *Router) sessionManager() []httpx.Middleware {
	return append(r.sessionMember(), r.requireManager)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints get the strict per-IP limit: they are the brute
	// force and account-enumeration surface.
	strict := httpx.RateLimitByIP(httpx.StrictLimit)

	r.Mux.Handle("POST /auth/create-account",
		httpx.Chain(http.HandlerFunc(h.HandleCreateAccount), strict))
	r.Mux.Handle("POST /auth/confirm-account",
		httpx.Chain(http.HandlerFunc(h.HandleConfirmAccount), strict))
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin), strict))
	r.Mux.Handle("POST /auth/request-code",
		httpx.Chain(http.HandlerFunc(h.HandleRequestCode), strict))
	r.Mux.Handle("POST /auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword), strict))
	r.Mux.Handle("POST /auth/validate-token",
		httpx.Chain(http.HandlerFunc(h.HandleValidateToken), strict))
	r.Mux.Handle("POST /auth/update-password/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword), strict))

	// Self-service endpoints behind a session.
	r.Mux.Handle("GET /auth/user",
		httpx.Chain(http.HandlerFunc(h.HandleUser),
			append(r.session(), httpx.RateLimitByUser(httpx.LenientLimit))...))
	r.Mux.Handle("PUT /auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			append(r.session(), httpx.RateLimitByUser(httpx.ModerateLimit))...))
	r.Mux.Handle("POST /auth/update-password",
		httpx.Chain(http.HandlerFunc(h.HandleUpdatePassword),
			append(r.session(), httpx.RateLimitByUser(httpx.ModerateLimit))...))
	r.Mux.Handle("POST /auth/check-password",
		httpx.Chain(http.HandlerFunc(h.HandleCheckPassword),
			append(r.session(), httpx.RateLimitByUser(httpx.ModerateLimit))...))
}

func (r *Router) registerProjects() {
	h := &ProjectHandler{ProjectService: r.ProjectService, TaskService: r.TaskService}

	r.Mux.Handle("POST /projects",
		httpx.Chain(http.HandlerFunc(h.HandleCreate), r.session()...))
	r.Mux.Handle("GET /projects",
		httpx.Chain(http.HandlerFunc(h.HandleList), r.session()...))

	r.Mux.Handle("GET /projects/{projectID}",
		httpx.Chain(http.HandlerFunc(h.HandleGet), r.sessionMember()...))
	r.Mux.Handle("PUT /projects/{projectID}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate), r.sessionManager()...))
	r.Mux.Handle("DELETE /projects/{projectID}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete), r.sessionManager()...))
}

func (r *Router) registerTasks() {
	h := &TaskHandler{TaskService: r.TaskService, NoteService: r.NoteService}

	// Task admin is manager-only; reading and moving status is for every
	// member.
	r.Mux.Handle("POST /projects/{projectID}/tasks",
		httpx.Chain(http.HandlerFunc(h.HandleCreate), r.sessionManager()...))
	r.Mux.Handle("GET /projects/{projectID}/tasks",
		httpx.Chain(http.HandlerFunc(h.HandleList), r.sessionMember()...))

	r.Mux.Handle("GET /projects/{projectID}/tasks/{taskID}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			append(r.sessionMember(), r.resolveTask)...))
	r.Mux.Handle("PUT /projects/{projectID}/tasks/{taskID}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			append(r.sessionManager(), r.resolveTask)...))
	r.Mux.Handle("DELETE /projects/{projectID}/tasks/{taskID}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			append(r.sessionManager(), r.resolveTask)...))
	r.Mux.Handle("POST /projects/{projectID}/tasks/{taskID}/status",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateStatus),
			append(r.sessionMember(), r.resolveTask)...))
}

func (r *Router) registerTeam() {
	h := &TeamHandler{ProjectService: r.ProjectService}

	r.Mux.Handle("POST /projects/{projectID}/team/find",
		httpx.Chain(http.HandlerFunc(h.HandleFind), r.sessionManager()...))
	r.Mux.Handle("GET /projects/{projectID}/team",
		httpx.Chain(http.HandlerFunc(h.HandleList), r.sessionMember()...))
	r.Mux.Handle("POST /projects/{projectID}/team",
		httpx.Chain(http.HandlerFunc(h.HandleAdd), r.sessionManager()...))
	r.Mux.Handle("DELETE /projects/{projectID}/team/{userID}",
		httpx.Chain(http.HandlerFunc(h.HandleRemove), r.sessionManager()...))
}

func (r *Router) registerNotes() {
	h := &NoteHandler{NoteService: r.NoteService}

	r.Mux.Handle("POST /projects/{projectID}/tasks/{taskID}/notes",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			append(r.sessionMember(), r.resolveTask)...))
	r.Mux.Handle("GET /projects/{projectID}/tasks/{taskID}/notes",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			append(r.sessionMember(), r.resolveTask)...))
	r.Mux.Handle("DELETE /projects/{projectID}/tasks/{taskID}/notes/{noteID}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			append(r.sessionMember(), r.resolveTask)...))
}

func (r *Router) registerSystem() {
	// Monitoring may poll these frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
