package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/handler"
	"github.com/oerms/oerms-backend/internal/middleware"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Institution  *handler.InstitutionHandler
	Staff        *handler.StaffHandler
	Student      *handler.StudentHandler
	Exam         *handler.ExamHandler
	Registration *handler.RegistrationHandler
	Result       *handler.ResultHandler
	Analytics    *handler.AnalyticsHandler
	Public       *handler.PublicHandler
	Notification *handler.NotificationHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(
		response.RequestIDMiddleware(),
		middleware.SecureHeaders(cfg.IsProduction()),
		middleware.AccessLog(log),
		middleware.Metrics(),
	)

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(authService)
	perm := func(p model.Permission) gin.HandlerFunc {
		return middleware.RequirePermission(authService, p)
	}
	anyPerm := func(ps ...model.Permission) gin.HandlerFunc {
		return middleware.RequireAnyPermission(authService, ps...)
	}

	// ─── 0. Public Group (No Auth, Compressed, Cacheable) ──────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.Brotli(), middleware.CacheControl(cfg.PublicCacheSeconds))
	{
		publicAPI.GET("/results/search", handlers.Public.SearchResults)
		publicAPI.GET("/exams", handlers.Public.Exams)
		publicAPI.GET("/institutions", handlers.Public.Institutions)
		publicAPI.GET("/stats", handlers.Public.Stats)
	}

	// ─── 1. Auth Group (Rate Limited) ──────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		limited := auth.Group("", middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow))
		limited.POST("/login", handlers.Auth.Login)
		limited.POST("/refresh", handlers.Auth.Refresh)
		limited.POST("/forgot-password", handlers.Auth.ForgotPassword)
		limited.POST("/reset-password", handlers.Auth.ResetPassword)

		auth.POST("/logout", requireAuth, handlers.Auth.Logout)
		auth.GET("/me", requireAuth, handlers.Auth.Me)
		auth.POST("/change-password", requireAuth, perm(model.PermissionChangePassword), handlers.Auth.ChangePassword)
	}

	// ─── 2. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireAuth)
	{
		ws.GET("/notifications", perm(model.PermissionReceiveNotifications), handlers.WS.Notifications)
	}

	// ─── 3. Authenticated API (JWT + RBAC) ─────────────────────────────
	api := router.Group("/api/v1")
	api.Use(requireAuth, middleware.NoStore())

	// Self-service
	me := api.Group("/me", middleware.RequireRole(authService, model.RoleStudent))
	{
		me.GET("/profile", perm(model.PermissionReadOwnData), handlers.Student.Me)
		me.GET("/results", perm(model.PermissionViewOwnResults), handlers.Result.List)
		me.GET("/registrations", perm(model.PermissionReadOwnData), handlers.Registration.List)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", handlers.Notification.List)
		notifications.POST("/read-all", handlers.Notification.MarkAllRead)
		notifications.POST("/:notification_id/read", handlers.Notification.MarkRead)
	}

	// Institutions
	institutions := api.Group("/institutions")
	{
		institutions.GET("", handlers.Institution.List)
		institutions.POST("", perm(model.PermissionCreateInstitutions), handlers.Institution.Create)
		institutions.GET("/:institution_id", handlers.Institution.Get)
		institutions.PUT("/:institution_id", perm(model.PermissionManageInstitutions), handlers.Institution.Update)
		institutions.DELETE("/:institution_id", perm(model.PermissionDeleteInstitutions), handlers.Institution.Delete)
		institutions.POST("/:institution_id/verify", perm(model.PermissionVerifyInstitutions), handlers.Institution.Verify)
		institutions.GET("/:institution_id/report",
			anyPerm(model.PermissionGenerateInstitutionReports, model.PermissionReadAllData),
			handlers.Institution.Report,
		)
	}

	// Staff accounts
	staff := api.Group("/staff", perm(model.PermissionManageUsers))
	{
		staff.GET("", handlers.Staff.List)
		staff.POST("", handlers.Staff.Create)
		staff.GET("/:staff_id", handlers.Staff.Get)
		staff.PATCH("/:staff_id/status", handlers.Staff.SetActive)
	}

	// Students
	students := api.Group("/students")
	{
		students.GET("",
			anyPerm(model.PermissionManageInstitutionStudents, model.PermissionReadAllData),
			handlers.Student.List,
		)
		students.POST("",
			anyPerm(model.PermissionEnrollStudents, model.PermissionManageUsers),
			handlers.Student.Enroll,
		)
		students.GET("/:student_id",
			anyPerm(model.PermissionReadOwnData, model.PermissionManageInstitutionStudents, model.PermissionReadAllData),
			handlers.Student.Get,
		)
		students.PUT("/:student_id",
			anyPerm(model.PermissionUpdateOwnProfile, model.PermissionManageInstitutionStudents, model.PermissionManageUsers),
			handlers.Student.Update,
		)
		students.PATCH("/:student_id/status",
			anyPerm(model.PermissionManageInstitutionStudents, model.PermissionManageUsers),
			handlers.Student.SetActive,
		)
	}

	// Exams
	exams := api.Group("/exams")
	{
		exams.GET("", handlers.Exam.List)
		exams.POST("", anyPerm(model.PermissionManageExams, model.PermissionScheduleExams), handlers.Exam.Create)
		exams.GET("/:exam_id", handlers.Exam.Get)
		exams.PUT("/:exam_id", anyPerm(model.PermissionManageExams, model.PermissionScheduleExams), handlers.Exam.Update)
		exams.DELETE("/:exam_id", perm(model.PermissionDeleteExams), handlers.Exam.Delete)
		exams.POST("/:exam_id/publish", perm(model.PermissionPublishResults), handlers.Exam.PublishResults)
		exams.GET("/:exam_id/statistics",
			anyPerm(model.PermissionManageExams, model.PermissionViewSystemAnalytics, model.PermissionScheduleExams),
			handlers.Analytics.ExamStatistics,
		)
		exams.GET("/:exam_id/publications",
			anyPerm(model.PermissionPublishResults, model.PermissionReadAllData),
			handlers.Exam.Publications,
		)
	}

	// Registrations
	registrations := api.Group("/registrations")
	{
		reviewers := anyPerm(model.PermissionVerifyRegistrations, model.PermissionManageInstitutionRegistrations)

		registrations.GET("", handlers.Registration.List)
		registrations.POST("",
			anyPerm(model.PermissionRegisterForExams, model.PermissionRegisterStudents),
			handlers.Registration.Register,
		)
		registrations.GET("/:registration_id", handlers.Registration.Get)
		registrations.POST("/:registration_id/approve", reviewers, handlers.Registration.Approve)
		registrations.POST("/:registration_id/reject", reviewers, handlers.Registration.Reject)
	}

	// Results
	results := api.Group("/results")
	{
		uploaders := anyPerm(model.PermissionManageExams, model.PermissionManageInstitutionStudents)

		results.GET("",
			anyPerm(model.PermissionViewOwnResults, model.PermissionViewInstitutionResults, model.PermissionReadAllData),
			handlers.Result.List,
		)
		results.POST("", uploaders, handlers.Result.Upload)
		results.POST("/bulk-upload", uploaders, handlers.Result.BulkUpload)
		results.GET("/statistics",
			anyPerm(model.PermissionViewInstitutionResults, model.PermissionReadAllData),
			handlers.Analytics.ResultStatistics,
		)
		results.GET("/:result_id",
			anyPerm(model.PermissionViewOwnResults, model.PermissionViewInstitutionResults, model.PermissionReadAllData),
			handlers.Result.Get,
		)
		results.PUT("/:result_id", uploaders, handlers.Result.Update)
		results.POST("/:result_id/publish", perm(model.PermissionPublishResults), handlers.Result.Publish)
	}

	// System analytics
	analytics := api.Group("/analytics", perm(model.PermissionViewSystemAnalytics))
	{
		analytics.GET("/system-wide", handlers.Analytics.SystemWide)
	}

	return router
}
