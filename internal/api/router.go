package api

import (
	"net/http"

	"github.com/example/pos-register/internal/api/middleware"
	"github.com/example/pos-register/internal/auth"
	"github.com/example/pos-register/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter wires the register API. Everything under /api/v1 requires a
// valid access token; /admin additionally requires the admin role.
func NewRouter(handlers *Handlers, jwtService *auth.JWTService, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtService))

		r.Get("/session/profile", handlers.GetProfile)
		r.Post("/session/logout", handlers.Logout)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handlers.GetCart)
			r.Delete("/", handlers.ClearCart)
			r.Post("/items", handlers.AddToCart)
			r.Delete("/items/{productID}", handlers.RemoveFromCart)
			r.Post("/items/{productID}/increase", handlers.IncreaseQuantity)
			r.Post("/items/{productID}/decrease", handlers.DecreaseQuantity)
		})

		r.Post("/checkout", handlers.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/pending", handlers.GetPendingOrders)
			r.Post("/pending/{localID}/retry", handlers.RetryOrder)
			r.Post("/sync", handlers.SyncOrders)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(handlers.profiles, session.RoleAdmin))
			r.Get("/plan", handlers.GetPlan)
			r.Get("/plan/check/{feature}", handlers.CheckFeature)
			r.Get("/subscription", handlers.GetSubscription)
			r.Get("/staff", handlers.ListStaff)
		})
	})

	return withCORS(r, corsOrigins)
}

func withCORS(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(next)
}
