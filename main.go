package main

import (
	"fmt"
	"log"
	"os"

	"github.com/xrkr80hd/EZApp/config"
	"github.com/xrkr80hd/EZApp/controllers"
	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/routes"
	"github.com/xrkr80hd/EZApp/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Consultant{},
		&models.ReminderLog{},
	)
}

// seedDefaultConsultant creates the initial admin login on an empty
// directory so the portal is reachable after a fresh deploy.
func seedDefaultConsultant() {
	var count int64
	config.DB.Model(&models.Consultant{}).Count(&count)
	if count > 0 {
		return
	}

	password := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	if password == "" {
		password = "ezbaths2024"
	}
	admin := models.Consultant{
		Username:     "admin",
		PasswordHash: password,
		FirstName:    "Admin",
		IsAdmin:      true,
		Active:       true,
	}
	if err := config.DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed default admin: %v", err)
		return
	}
	log.Println("Seeded default admin account, change its password")
}

func main() {
	seedDefaultConsultant()

	kv := config.OpenStore()

	registry := services.NewRegistry(kv)
	documents := services.NewDocuments(kv, registry)
	engine := services.NewBackup(kv, registry, documents)
	controllers.Setup(registry, documents, engine)

	services.NewReminderService(config.DB, kv).StartScheduler()
	services.NewBackupScheduler(engine).Start()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
