package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/db"
	"taskmanager/internal/email"
	"taskmanager/internal/observability"
	"taskmanager/internal/services"
)

const jsonBodyLimit = 1 << 20 // 1 MB

type Server struct {
	router *chi.Mux
	config *config.Config
}

// Services bundles what the HTTP layer needs from the domain.
type Services struct {
	Credentials *services.CredentialStore
	Sessions    *services.SessionManager
	Accounts    *services.AccountService
	Tasks       *services.TaskService
}

// NewServices wires repositories and domain services over one database.
func NewServices(cfg *config.Config, database *db.DB, notifier email.Notifier) Services {
	users := db.NewUserRepository(database)
	tokens := db.NewSessionTokenRepository(database)
	tasks := db.NewTaskRepository(database)

	signer := auth.NewTokenSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	return Services{
		Credentials: services.NewCredentialStore(users, hasher, notifier),
		Sessions:    services.NewSessionManager(signer, users, tokens),
		Accounts:    services.NewAccountService(database, users, tokens, tasks, hasher, notifier, cfg.Uploads.AvatarSize),
		Tasks:       services.NewTaskService(tasks),
	}
}

func NewServer(
	cfg *config.Config,
	database *db.DB,
	svc Services,
	metrics *observability.Metrics,
) *Server {
	userHandler := NewUserHandler(svc.Credentials, svc.Sessions, svc.Accounts, metrics, cfg.Server.BaseURL)
	avatarHandler := NewAvatarHandler(svc.Accounts, cfg.Uploads.AvatarMaxBytes, cfg.Server.BaseURL)
	taskHandler := NewTaskHandler(svc.Tasks)
	healthHandler := NewHealthHandler(database)

	authMiddleware := NewAuthMiddleware(svc.Sessions, metrics)
	credentialLimit := authRateLimit(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// public
		r.Group(func(r chi.Router) {
			r.Use(maxBodySizeMiddleware(jsonBodyLimit))
			r.With(credentialLimit).Post("/users", userHandler.Register)
			r.With(credentialLimit).Post("/users/login", userHandler.Login)
		})
		r.Get("/users/{id}/avatar", avatarHandler.Get)

		// authenticated
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			// avatar uploads carry their own size limit
			r.Post("/users/me/avatar", avatarHandler.Upload)
			r.Post("/users/myaccount/avatar", avatarHandler.Upload)

			r.Group(func(r chi.Router) {
				r.Use(maxBodySizeMiddleware(jsonBodyLimit))

				r.Post("/users/logout", userHandler.Logout)
				r.Post("/users/logoutAll", userHandler.LogoutAll)

				for _, me := range []string{"/users/me", "/users/myaccount"} {
					r.Get(me, userHandler.GetMe)
					r.Patch(me, userHandler.UpdateMe)
					r.Delete(me, userHandler.DeleteMe)
					r.Delete(me+"/avatar", avatarHandler.Delete)
				}

				r.Route("/tasks", func(r chi.Router) {
					r.Post("/", taskHandler.Create)
					r.Get("/", taskHandler.List)
					r.Get("/{id}", taskHandler.Get)
					r.Patch("/{id}", taskHandler.Update)
					r.Delete("/{id}", taskHandler.Delete)
				})
			})
		})
	})

	return &Server{
		router: r,
		config: cfg,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
