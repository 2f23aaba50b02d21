package handlers

import (
	"github.com/fenilmodi00/ipo-dashboard/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppConfig holds the HTTP-level settings
type AppConfig struct {
	ClientURL string
	// CookieKey is the base64 encoded 32-byte key for encrypted cookies
	CookieKey string
	AccessLog bool
}

// Dependencies are the collaborators the routes are served by
type Dependencies struct {
	Store     storage.Store
	Sessions  SessionManager
	Auth      Authenticator
	Favorites FavoritesManager
	Calendar  IPOCalendarProvider
	News      NewsProvider
	Gatherer  prometheus.Gatherer
	NewState  func() string
	// SessionStorage is the external session backend probed by /health; nil when sessions are in memory
	SessionStorage Pinger
}

// NewApp builds the fiber app with middleware and every route mounted
func NewApp(config AppConfig, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ipo-dashboard",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if config.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ClientURL,
		AllowCredentials: true,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
	}))
	app.Use(encryptcookie.New(encryptcookie.Config{Key: config.CookieKey}))

	SetupRoutes(app, config, deps)
	return app
}

// SetupRoutes mounts the /api routes and the catch-all 404
func SetupRoutes(app *fiber.App, config AppConfig, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.Store, deps.SessionStorage)
	authHandler := NewAuthHandler(deps.Auth, deps.Sessions, config.ClientURL, deps.NewState)
	ipoHandler := NewIPOHandler(deps.Calendar, deps.News)
	newsHandler := NewNewsHandler(deps.News)
	favoritesHandler := NewFavoritesHandler(deps.Favorites)

	api := app.Group("/api", ResolveIdentity(deps.Sessions, deps.Auth))

	api.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		api.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Auth Routes
	auth := api.Group("/auth")
	auth.Get("/google", authHandler.GoogleLogin)
	auth.Get("/google/callback", authHandler.GoogleCallback)
	auth.Get("/me", RequireAuth, authHandler.Me)
	auth.Post("/logout", RequireAuth, authHandler.Logout)

	// IPO Routes
	ipos := api.Group("/ipos")
	ipos.Get("/", ipoHandler.GetIPOs)
	ipos.Get("/company-news", ipoHandler.GetCompanyNews)
	ipos.Get("/company/:symbol", ipoHandler.GetCompanyDetails)

	// News Routes
	news := api.Group("/news")
	news.Get("/market", newsHandler.GetMarketNews)
	news.Get("/headlines", newsHandler.GetHeadlines)

	// Favorites Routes
	favorites := api.Group("/favorites", RequireAuth)
	favorites.Get("/", favoritesHandler.List)
	favorites.Post("/", favoritesHandler.Add)
	favorites.Delete("/:symbol", favoritesHandler.Remove)

	app.Use(func(c *fiber.Ctx) error {
		return respondMessage(c, fiber.StatusNotFound, MsgRouteNotFound)
	})
}
