package api

import (
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth         service.AuthService
	Memorization service.MemorizationService
	Adherence    service.AdherenceService
	Plans        service.PlanService
	Notification service.NotificationService
	Recitation   service.RecitationService
	// Progress feeds the SSE stream; usually the events.Bus the
	// memorization service publishes to.
	Progress ProgressSubscriber
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	memorizationHandler := NewMemorizationHandler(svc.Memorization, svc.Adherence, svc.Progress)
	planHandler := NewPlanHandler(svc.Plans)
	notificationHandler := NewNotificationHandler(svc.Notification)
	recitationHandler := NewRecitationHandler(svc.Recitation)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Plan catalogue ---
		protected.GET("/plans", planHandler.ListPlans)
		protected.GET("/plans/:planId", planHandler.GetPlan)

		// --- Member routes (the authenticated user's own data) ---
		me := protected.Group("/me")
		{
			me.POST("/plan", memorizationHandler.SubscribeToPlan)
			me.GET("/tasks/today", memorizationHandler.GetTodayTasks)

			me.POST("/progress", memorizationHandler.LogProgress)
			me.GET("/progress/report", memorizationHandler.GetReport)
			me.GET("/progress/stream", memorizationHandler.StreamProgress)

			me.POST("/failures", memorizationHandler.LogFailure)
			me.POST("/adherence/check", memorizationHandler.CheckAdherence)

			me.GET("/notifications", notificationHandler.GetPending)
			me.POST("/notifications/:id/read", notificationHandler.MarkRead)
			me.PUT("/notifications/preferences", notificationHandler.UpdatePreferences)

			me.POST("/recitations/upload-url", recitationHandler.RequestUploadURL)
			me.POST("/recitations", recitationHandler.ConfirmUpload)
			me.GET("/recitations", recitationHandler.ListRecitations)
			me.GET("/recitations/:id/download-url", recitationHandler.GetDownloadURL)
		}

		// --- Admin routes ---
		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.POST("/plans", planHandler.CreatePlan)
			admin.POST("/users/:userId/adherence/check", memorizationHandler.CheckUserAdherence)
		}
	}
}
