package http

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/oladanielT/support-system/internal/api/http/handlers"
	"github.com/oladanielT/support-system/internal/auth"
	"github.com/oladanielT/support-system/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware fiber.Handler
	// LoginRateLimit caps login attempts per client IP per minute. Zero disables the limit.
	LoginRateLimit int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	if cfg.LoginRateLimit > 0 {
		authGroup.Post("/login", loginLimiter(cfg.LoginRateLimit), cfg.Users.Login)
	} else {
		authGroup.Post("/login", cfg.Users.Login)
	}

	protected := api.Group("", cfg.AuthMiddleware, auth.RequireAnyRole())
	adminOnly := auth.RequireRole(domain.RoleAdmin)
	staff := auth.RequireRole(domain.RoleAdmin, domain.RoleEngineer)

	protected.Post("/auth/password/change", cfg.Users.ChangePassword)

	users := protected.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Patch("/me", cfg.Users.UpdateMe)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", adminOnly, cfg.Users.AdminUpdate)

	complaints := protected.Group("/complaints")
	complaints.Get("/", cfg.Complaints.List)
	complaints.Post("/", cfg.Complaints.Create)
	complaints.Get("/my", cfg.Complaints.ListMine)
	complaints.Get("/assigned", staff, cfg.Complaints.ListAssigned)
	complaints.Post("/sync", cfg.Complaints.BulkSync)
	complaints.Get("/stats", cfg.Complaints.Stats)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Patch("/:id", cfg.Complaints.Update)
	complaints.Delete("/:id", cfg.Complaints.Delete)
	complaints.Post("/:id/assign", adminOnly, cfg.Complaints.Assign)
	complaints.Post("/:id/status", cfg.Complaints.ChangeStatus)
	complaints.Post("/:id/comments", cfg.Complaints.Comment)
	complaints.Get("/:id/history", cfg.Complaints.History)
	complaints.Post("/:id/attachments", cfg.Complaints.UploadAttachment)
	complaints.Get("/:id/attachments", cfg.Complaints.ListAttachments)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Delete("/", cfg.Notifications.Clear)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
}

func loginLimiter(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, retry later")
		},
	})
}
