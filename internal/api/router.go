package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/recetar/recetar-api/internal/api/handler"
	"github.com/recetar/recetar-api/internal/api/middleware"
	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
	"github.com/recetar/recetar-api/internal/infrastructure/http/handlers"
)

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Supplies ports.SupplyService
	Sessions ports.SessionVerifier
	Andes    ports.DelegatedVerifier

	// Checks are the readiness probes served on /health/ready. Failures of
	// the checks named in OptionalChecks do not make the service unready.
	Checks         map[string]handlers.Check
	OptionalChecks []string

	// MetricsRegisterer receives the HTTP request metrics. Defaults to the
	// Prometheus default registerer.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "recetar",
		Registerer: deps.MetricsRegisterer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Auth)
	supplyHandler := handler.NewSupplyHandler(deps.Supplies)
	andesHandler := handler.NewAndesHandler(deps.Log)

	session := middleware.Session(deps.Sessions)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login, middleware.Credentials(deps.Auth))
	auth.GET("/jwt-login", authHandler.Login, session)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/recovery-password", authHandler.RecoverPassword)
	auth.POST("/setValidationTokenAndNotify", authHandler.RequestRecovery)
	auth.POST("/reset-password", authHandler.ResetPassword, session)
	auth.POST("/token", authHandler.ServiceToken, session, adminOnly)

	// --- Users ---
	users := e.Group("/users", session)
	users.POST("/search", userHandler.Search)
	users.PATCH("/:id", userHandler.Update, middleware.SelfOrRole("id", domain.RoleAdmin))
	users.POST("/:id/roles", userHandler.AssignRole, adminOnly)

	// --- Supplies ---
	supplies := e.Group("/supplies", session)
	supplies.GET("", supplyHandler.List)
	supplies.POST("", supplyHandler.Create)
	supplies.GET("/get-by-name", supplyHandler.SearchByName)
	supplies.GET("/:id", supplyHandler.Show)
	supplies.PATCH("/:id", supplyHandler.Update)
	supplies.DELETE("/:id", supplyHandler.Delete)

	// --- Andes ---
	andes := e.Group("/andes", middleware.Andes(deps.Andes))
	andes.POST("/prescriptions", andesHandler.CreatePrescription)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks, deps.OptionalChecks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
