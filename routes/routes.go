package routes

import (
	"github.com/xrkr80hd/EZApp/config"
	"github.com/xrkr80hd/EZApp/controllers"
	"github.com/xrkr80hd/EZApp/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"https://ezapp.ezbaths.com",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Consultant directory
		users := api.Group("/users")
		{
			users.GET("", controllers.GetUsers)
			users.POST("", controllers.SaveUser)
			users.DELETE("/:id", controllers.DeleteUser)
		}

		// Customer registry
		customers := api.Group("/customers")
		{
			customers.GET("", controllers.ListCustomers)
			customers.POST("", controllers.UpsertCustomer)
			customers.POST("/import", controllers.ImportCustomer)
			customers.GET("/current", controllers.GetCurrentCustomer)
			customers.PUT("/current", controllers.SetCurrentCustomer)
			customers.GET("/:id", controllers.GetCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Archived customer snapshots
		archives := api.Group("/archives")
		{
			archives.GET("", controllers.ListArchives)
			archives.POST("", controllers.ArchiveCurrentCustomer)
			archives.POST("/load", controllers.LoadArchive)
			archives.DELETE("/:key", controllers.DeleteArchive)
		}

		// Per-tool documents
		documents := api.Group("/documents")
		{
			documents.GET("/survey", controllers.GetSurvey)
			documents.POST("/survey", controllers.SaveSurvey)
			documents.GET("/photos", controllers.GetPhotos)
			documents.POST("/photos", controllers.SavePhotos)
			documents.GET("/photos/autofill", controllers.AutofillMeasurements)
			documents.GET("/:tool", controllers.GetToolDocument)
			documents.POST("/:tool", controllers.SaveToolDocument)
		}

		// Page-level autosave cache
		cache := api.Group("/cache")
		{
			cache.GET("/:page", controllers.GetPageCache)
			cache.POST("/:page", controllers.SavePageCache)
		}

		// Export, backup and restore
		api.GET("/export/customer/:id", controllers.ExportCustomerJSON)
		api.GET("/export/customer/:id/zip", controllers.ExportCustomerZip)
		api.GET("/export/full", controllers.ExportFullBackup)
		api.POST("/import", controllers.ImportBackup)
		api.GET("/storage/stats", controllers.GetStorageStats)
	}

	return r
}
