package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
)

type Deps struct {
	Auth       *service.AuthService
	Scheduling *service.SchedulingService
	Schedules  *service.ScheduleService
	Resources  *service.ResourceService
	Admin      *service.AdminService
	Directory  *service.DirectoryService

	JWT          *auth.JWTManager
	LoginLimiter *middleware.IPRateLimiter
	Clock        clock.Clock
	Log          *zap.Logger

	HideForbidden bool
}

type Handler struct {
	d Deps
}

func NewHandler(d Deps) *Handler {
	return &Handler{d: d}
}

// Register mounts every v1 route under g.
func (h *Handler) Register(g *gin.RouterGroup) {
	authGroup := g.Group("/auth")
	authGroup.POST("/login", middleware.RateLimit(h.d.LoginLimiter), h.Login)
	authGroup.POST("/refresh", h.Refresh)

	api := g.Group("", middleware.Auth(h.d.JWT, true))
	api.POST("/auth/password", h.ChangePassword)

	api.GET("/doctors", h.ListDoctors)
	api.GET("/specialties", h.ListSpecialties)
	api.GET("/doctors/:id/slots", h.GetAvailableSlots)
	api.GET("/doctors/:id/schedule", h.ListBlocks)
	api.POST("/doctors/:id/schedule", h.AddBlock)
	api.DELETE("/schedule-blocks/:id", h.RemoveBlock)

	appointments := api.Group("/appointments")
	appointments.POST("", h.BookAppointment)
	appointments.GET("", h.ListAppointments)
	appointments.GET("/:id", h.GetAppointment)
	appointments.PATCH("/:id/status", h.ChangeAppointmentStatus)
	appointments.DELETE("/:id", h.DeleteAppointment)

	api.GET("/resources/:type/:id/access", h.CheckAccess)

	admin := api.Group("/admin")
	admin.PUT("/users/:id/roles", h.SetRoles)
	admin.POST("/admins", h.CreateAdmin)
	admin.GET("/audit-logs", h.ListAuditLogs)
}
