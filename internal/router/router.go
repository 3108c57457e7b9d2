package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"smartlearning-backend/internal/handlers"
	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/metrics"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/websocket"
)

type Handlers struct {
	Auth  *handlers.AuthHandler
	Video *handlers.VideoHandler
	Quiz  *handlers.QuizHandler
	User  *handlers.UserHandler
}

type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
}

// New builds the HTTP routes. The returned limiters must have their
// Cleanup loops started by the caller.
func New(
	jwtAuth *middleware.JWTAuth,
	h Handlers,
	wsHub *websocket.Hub,
	opts Options,
	log *logger.Logger,
) (http.Handler, []*middleware.RateLimiter) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Observe(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	processLimiter := middleware.NewRateLimiter(opts.RateLimitPerMin, time.Minute)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/profile", h.Auth.Profile)
				r.Patch("/preferences", h.Auth.UpdatePreferences)
			})
		})

		// ──── Video Routes ────
		r.Route("/videos", func(r chi.Router) {
			r.Get("/supported-formats", h.Video.SupportedFormats) // Public

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)

				r.Group(func(r chi.Router) {
					r.Use(processLimiter.Middleware)
					r.Post("/process", h.Video.Process)
					r.Post("/process-text", h.Video.ProcessText)
					r.Post("/process-file", h.Video.ProcessFile)
				})

				r.Get("/", h.Video.List)
				r.Get("/{id}", h.Video.Get)
				r.Delete("/{id}", h.Video.Delete)
			})
		})

		// ──── Quiz Routes ────
		r.Route("/quiz", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/video/{videoId}", h.Quiz.GetByVideo)
			r.Post("/{quizId}/submit", h.Quiz.Submit)
			r.Get("/{quizId}/attempts", h.Quiz.Attempts)
			r.Get("/{quizId}/attempts/{attemptNumber}", h.Quiz.Attempt)
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/dashboard", h.User.Dashboard)
			r.Get("/progress", h.User.Progress)
			r.Patch("/profile", h.User.UpdateProfile)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r, []*middleware.RateLimiter{authLimiter, processLimiter}
}
