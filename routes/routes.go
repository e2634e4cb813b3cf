package routes

import (
	"github.com/gin-gonic/gin"

	"pkm-review-api/controllers"
	"pkm-review-api/middleware"
	"pkm-review-api/models"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "PKM Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", controllers.GetProfile)

			// Phase toggles: everyone reads, only admins flip
			protected.GET("/phases", controllers.GetPhaseToggles)
			protected.PUT("/phases/:key", middleware.RequireRole(models.RoleAdmin), controllers.SetPhaseToggle)

			// Criteria master data
			criteria := protected.Group("/criteria")
			{
				criteria.GET("/administrasi", controllers.GetAdministrativeCriteria)
				criteria.GET("/substansi", controllers.GetSubstantiveCriteria)
				criteria.POST("/substansi", middleware.RequireRole(models.RoleAdmin), controllers.CreateSubstantiveCriterion)
			}
			protected.GET("/skema", controllers.GetSkema)

			// Reviewer assignments (admin only)
			assignments := protected.Group("/assignments")
			{
				assignments.POST("", middleware.RequireRole(models.RoleAdmin), controllers.AssignReviewers)
				assignments.POST("/bulk", middleware.RequireRole(models.RoleAdmin), controllers.BulkAssignReviewers)
				assignments.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.UnassignReviewer)

				// Blind assessments; ownership is enforced in the service
				assignments.POST("/:id/administrasi", middleware.RequireRole(models.RoleReviewer), controllers.SubmitAdministrative)
				assignments.PUT("/:id/administrasi", middleware.RequireRole(models.RoleReviewer), controllers.UpdateAdministrative)
				assignments.GET("/:id/administrasi", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.GetAdministrative)
				assignments.POST("/:id/substansi", middleware.RequireRole(models.RoleReviewer), controllers.SubmitSubstantive)
				assignments.PUT("/:id/substansi", middleware.RequireRole(models.RoleReviewer), controllers.UpdateSubstantive)
				assignments.GET("/:id/substansi", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.GetSubstantive)
			}

			// Proposals
			proposals := protected.Group("/proposals")
			{
				proposals.GET("", middleware.RequireRole(models.RoleAdmin), controllers.ListProposals)
				proposals.GET("/:id", controllers.GetProposal)
				proposals.POST("/:id/submit", middleware.RequireRole(models.RoleStudent), controllers.SubmitProposal)
				proposals.POST("/:id/documents", middleware.RequireRole(models.RoleStudent), controllers.UploadProposalDocument)
				proposals.PUT("/:id/status", middleware.RequireRole(models.RoleAdmin), controllers.OverrideProposalStatus)

				// Aggregated results; blind-review visibility in the service
				proposals.GET("/:id/errors", controllers.GetErrorUnion)
				proposals.GET("/:id/summary", controllers.GetReviewSummary)
			}

			// Team bootstrap (admin only)
			protected.POST("/teams", middleware.RequireRole(models.RoleAdmin), controllers.CreateTeam)
		}
	}
}
