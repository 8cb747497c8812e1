package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/orkestre/orkestre-api/internal/handler"
	"github.com/orkestre/orkestre-api/internal/middleware"
	"github.com/orkestre/orkestre-api/internal/service"
	"github.com/orkestre/orkestre-api/pkg/config"
	"github.com/orkestre/orkestre-api/pkg/logger"
	corsmiddleware "github.com/orkestre/orkestre-api/pkg/middleware/cors"
	reqidmiddleware "github.com/orkestre/orkestre-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Establishment *handler.EstablishmentHandler
	Service       *handler.ServiceHandler
	Appointment   *handler.AppointmentHandler
	Health        *handler.HealthHandler
}

// Services groups the services the router needs for middleware wiring.
type Services struct {
	Auth          *service.AuthService
	Establishment *service.EstablishmentService
	Metrics       *service.MetricsService
}

// New assembles the gin engine with all routes and middleware.
func New(cfg *config.Config, log *zap.Logger, h Handlers, s Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(s.Metrics))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(s.Auth), h.Auth.Logout)
	}
	api.GET("/users/me", middleware.JWT(s.Auth), h.Auth.Me)

	// Public booking flow. These routes carry the original frontend
	// contract: bare slot arrays and {detail} error objects.
	public := api.Group("/establishments/:id")
	{
		public.GET("", h.Establishment.Get)
		public.GET("/services", h.Service.ListPublic)
		public.GET("/services/:serviceId/available-slots", h.Appointment.AvailableSlots)
		public.POST("/appointments", h.Appointment.Create)
	}

	// Owner dashboard. Every route resolves and checks establishment
	// ownership before the handler runs.
	owner := api.Group("/establishments/:id")
	owner.Use(middleware.JWT(s.Auth), middleware.RequireEstablishmentOwner(s.Establishment))
	{
		owner.PUT("/working-hours", h.Establishment.UpdateWorkingHours)
		owner.GET("/services/all", h.Service.ListAll)
		owner.POST("/services", h.Service.Create)
		owner.GET("/services/:serviceId", h.Service.Get)
		owner.PUT("/services/:serviceId", h.Service.Update)
		owner.DELETE("/services/:serviceId", h.Service.Delete)
		owner.GET("/appointments", h.Appointment.List)
		owner.GET("/appointments/export", h.Appointment.Export)
		owner.PATCH("/appointments/:appointmentId/status", h.Appointment.UpdateStatus)
	}

	return r
}
