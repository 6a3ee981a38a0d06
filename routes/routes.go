package routes

import (
	"github.com/SaiCharanMahadevan/HealthTrackerApp/controllers"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupRouter(entryCtrl *controllers.HealthEntryController, reportCtrl *controllers.ReportController) *gin.Engine {
	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	api := r.Group("/api/v1")
	api.Use(middlewares.AuthMiddleware())
	{
		entries := api.Group("/entries")
		{
			entries.POST("", entryCtrl.CreateEntry)
			entries.GET("", entryCtrl.ListEntries)
			entries.GET("/:id", entryCtrl.GetEntry)
			entries.PUT("/:id", entryCtrl.UpdateEntry)
			entries.DELETE("/:id", entryCtrl.DeleteEntry)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/summary/daily", reportCtrl.GetDailySummary)
			reports.GET("/summary/weekly", reportCtrl.GetWeeklySummary)
			reports.GET("/trends", reportCtrl.GetTrends)
		}
	}

	return r
}
