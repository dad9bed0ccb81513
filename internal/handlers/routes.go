package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
)

// Router holds every handler the API serves.
type Router struct {
	Sessions     *session.Manager
	Log          logrus.FieldLogger
	Auth         *AuthHandler
	Google       *GoogleOAuthHandler // nil when Google sign-in is not configured
	Categories   *CategoryHandler
	Providers    *ProviderHandler
	Applications *ApplicationHandler
	Bookings     *BookingHandler
	Messages     *MessageHandler
	Feed         *FeedHandler
	Freelancer   *FreelancerDashboardHandler
	Homeowner    *HomeownerHandler
	Admin        *AdminHandler
	Hub          *realtime.Hub // nil disables /ws
}

// Mount registers the API under /api and the websocket under /ws.
func (r *Router) Mount(app *fiber.App) {
	homeowner := middleware.RequireRoles(string(models.RoleHomeowner))
	freelancer := middleware.RequireRoles(string(models.RoleFreelancer))
	member := middleware.RequireRoles(string(models.RoleHomeowner), string(models.RoleFreelancer))
	authorOrAdmin := middleware.RequireRoles(string(models.RoleFreelancer), string(models.RoleAdmin))
	admin := middleware.RequireRoles(string(models.RoleAdmin))
	requireSession := middleware.RequireSession(r.Sessions)

	api := app.Group("/api")

	// public
	api.Post("/auth/signup", r.Auth.Signup)
	api.Post("/auth/login", r.Auth.Login)
	api.Post("/auth/logout", middleware.OptionalSession(r.Sessions), r.Auth.Logout)
	if r.Google != nil {
		api.Get("/auth/google/start", r.Google.GoogleStart)
		api.Get("/auth/google/callback", r.Google.GoogleCallback)
	}
	api.Get("/categories", r.Categories.GetCategories)
	r.Providers.Routes(api)
	r.Applications.Routes(api)

	// signed in
	protected := api.Group("/", requireSession)
	protected.Get("/auth/session", r.Auth.Session)

	r.Bookings.Routes(protected, homeowner, freelancer)
	r.Messages.Routes(protected, member)
	r.Feed.Routes(protected, homeowner, freelancer, authorOrAdmin, member)
	r.Freelancer.Routes(protected, freelancer)
	r.Homeowner.Routes(protected, homeowner)

	adm := protected.Group("/admin", admin)
	adm.Post("/admins", r.Auth.CreateAdmin)
	r.Applications.AdminRoutes(adm)
	r.Admin.Routes(adm)

	if r.Hub != nil {
		app.Get("/ws", requireSession, func(c *fiber.Ctx) error {
			if !websocket.IsWebSocketUpgrade(c) {
				return fiber.ErrUpgradeRequired
			}
			return c.Next()
		}, websocket.New(realtime.ServeWS(r.Hub, r.Log)))
	}
}
