package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"thrivepath/internal/logger"
	"thrivepath/internal/metrics"
	"thrivepath/internal/models"
	"thrivepath/internal/security"
	"thrivepath/internal/service"
)

// RouterConfig carries everything the HTTP layer depends on. Metrics and
// Limiter are optional.
type RouterConfig struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Students *service.StudentService
	Sessions *service.SessionService
	Notes    *service.NoteService
	DB       Pinger
	Logger   *logger.Logger
	Metrics  *metrics.Metrics

	Limiter     *security.RateLimiter
	RateWindow  time.Duration
	CORSOrigins []string
}

// NewRouter wires handlers, middleware and role gates into a chi router
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	authHandler := NewAuthHandler(cfg.Auth, cfg.Metrics)
	profileHandler := NewProfileHandler(cfg.Profiles)
	studentHandler := NewStudentHandler(cfg.Students)
	sessionHandler := NewSessionHandler(cfg.Sessions)
	noteHandler := NewNoteHandler(cfg.Notes)
	healthHandler := NewHealthHandler(cfg.DB)
	mw := NewMiddleware(cfg.Auth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: allowCredentials(cfg.CORSOrigins),
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, r, http.StatusNotFound, "Not Found", "", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", "", nil)
	})

	// Public
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Get("/readyz", healthHandler.Ready)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware(rateLimited(cfg.RateWindow)))
		}
		r.Post("/api/login", authHandler.Login)
		r.Post("/api/register", authHandler.Register)
	})

	// Any authenticated account
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)

		r.Get("/api/me", authHandler.Me)
		r.Get("/api/profile", profileHandler.Get)
		r.Put("/api/profile", profileHandler.Update)
		r.Get("/api/students", studentHandler.List)
		r.Post("/api/enroll-student", studentHandler.Enroll)
		r.Get("/api/students/{id}/activities", studentHandler.ListActivities)
		r.Get("/api/children/{id}/completed-sessions", sessionHandler.CompletedByChild)

		r.With(RequireRole(models.RoleParent)).Post("/api/sessions/{id}/feedback", sessionHandler.SubmitFeedback)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleTherapist))

			r.Get("/api/students/{id}", studentHandler.Get)
			r.Post("/api/students/{id}/activities", studentHandler.AddActivity)
			r.Get("/api/my-students", studentHandler.MyStudents)

			r.Get("/api/notes/dates/all", noteHandler.ListDates)
			r.Get("/api/notes/{date}", noteHandler.ListByDate)
			r.Post("/api/notes", noteHandler.Create)

			r.Post("/api/sessions", sessionHandler.Create)
			r.Get("/api/sessions", sessionHandler.List)
			r.Get("/api/sessions/{id}", sessionHandler.Get)
			r.Put("/api/sessions/{id}", sessionHandler.Update)
			r.Delete("/api/sessions/{id}", sessionHandler.Delete)
			r.Post("/api/sessions/{id}/activities", sessionHandler.AddActivity)
			r.Get("/api/sessions/{id}/activities", sessionHandler.ListActivities)
			r.Put("/api/sessions/{id}/activities/{activityId}", sessionHandler.UpdateActivity)
			r.Delete("/api/sessions/{id}/activities/{activityId}", sessionHandler.RemoveActivity)
		})
	})

	return r
}

// allowCredentials reports whether credentialed CORS requests may be allowed.
// An empty list means any origin, so credentials stay off in that case.
func allowCredentials(origins []string) bool {
	return len(origins) > 0 && !slices.Contains(origins, "*")
}
