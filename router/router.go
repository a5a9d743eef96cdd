package router

import (
	"net/http"
	"noxa-api/handler"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "noxa-api/docs"
)

// Handlers groups everything the router mounts. Nil members leave their routes out.
type Handlers struct {
	Auth          *handler.AuthHandler
	Push          *handler.PushHandler
	Notifications *handler.NotificationHandler
	Realtime      http.Handler
	Verifier      handler.TokenVerifier
}

type Options struct {
	AllowedOrigins []string
	// AuthRateLimit is requests per minute per IP on the unauthenticated user routes. Zero disables it.
	AuthRateLimit int
}

func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Get("/health", handler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	if h.Realtime != nil {
		r.Method(http.MethodGet, "/ws", h.Realtime)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if h.Auth != nil {
			api.Route("/users", func(users chi.Router) {
				users.Group(func(public chi.Router) {
					if opts.AuthRateLimit > 0 {
						public.Use(httprate.LimitByIP(opts.AuthRateLimit, time.Minute))
					}
					public.Post("/register", handler.ErrorHandlingMiddleware(h.Auth.Register))
					public.Post("/login", handler.ErrorHandlingMiddleware(h.Auth.Login))
					public.Post("/refresh", handler.ErrorHandlingMiddleware(h.Auth.Refresh))
					public.Post("/logout", handler.ErrorHandlingMiddleware(h.Auth.Logout))
				})
				if h.Verifier != nil {
					users.With(handler.AuthMiddleware(h.Verifier)).Get("/me", handler.ErrorHandlingMiddleware(h.Auth.Me))
				}
			})
		}

		api.Route("/notifications", func(n chi.Router) {
			if h.Push != nil {
				n.Get("/push/public-key", handler.ErrorHandlingMiddleware(h.Push.PublicKey))
			}
			if h.Verifier == nil {
				return
			}
			n.Group(func(protected chi.Router) {
				protected.Use(handler.AuthMiddleware(h.Verifier))
				if h.Push != nil {
					protected.Post("/push/subscription", handler.ErrorHandlingMiddleware(h.Push.Subscribe))
					protected.Delete("/push/subscription", handler.ErrorHandlingMiddleware(h.Push.Unsubscribe))
				}
				if h.Notifications != nil {
					protected.Post("/events", handler.ErrorHandlingMiddleware(h.Notifications.Publish))
				}
			})
		})
	})

	return r
}
