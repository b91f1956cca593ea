package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/formacrm/backend/internal/application/services"
	"github.com/formacrm/backend/internal/bootstrap"
	"github.com/formacrm/backend/internal/infrastructure/database"
	"github.com/formacrm/backend/internal/interfaces/middleware"
	"github.com/formacrm/backend/internal/interfaces/rest"
	"github.com/formacrm/backend/pkg/constants"
)

func main() {
	// .env is optional; environment variables win
	_ = godotenv.Load()

	port := os.Getenv(constants.EnvPort)
	if port == "" {
		port = "3001"
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	svcMgr := services.NewServiceManager(db)
	log.Println("🔧 Service manager initialized")

	if err := bootstrap.InitializeStandardEntities(svcMgr.TxManager); err != nil {
		log.Fatalf("Failed to initialize standard entities: %v", err)
	}
	svcMgr.Metadata.RefreshCache()

	if mode := os.Getenv(constants.EnvGinMode); mode != "" {
		gin.SetMode(mode)
	}
	router := gin.Default()
	router.Use(middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	metadataHandler := rest.NewMetadataHandler(svcMgr)
	formHandler := rest.NewFormHandler(svcMgr)
	recordHandler := rest.NewRecordHandler(svcMgr)

	requireAuth := middleware.RequireAuth()
	requireAdmin := middleware.RequireAdmin()

	api := router.Group("/api")
	{
		// Protected Metadata routes
		metadata := api.Group("/metadata")
		metadata.Use(requireAuth)
		{
			metadata.GET("/entities", metadataHandler.GetEntities)
			metadata.POST("/entities", requireAdmin, metadataHandler.CreateEntity)
			metadata.GET("/entities/:entityCode", metadataHandler.GetEntity)
			metadata.PATCH("/entities/:entityCode", requireAdmin, metadataHandler.UpdateEntity)

			metadata.GET("/entities/:entityCode/fields", metadataHandler.GetFields)
			metadata.POST("/entities/:entityCode/fields", requireAdmin, metadataHandler.CreateField)
			metadata.DELETE("/fields/:id", requireAdmin, metadataHandler.DeleteField)
			metadata.POST("/fields/:id/restore", requireAdmin, metadataHandler.RestoreField)
			metadata.GET("/fieldtypes", metadataHandler.GetFieldTypes)

			metadata.GET("/entities/:entityCode/rules", metadataHandler.GetValidationRules)
			metadata.POST("/entities/:entityCode/rules", requireAdmin, metadataHandler.CreateValidationRule)
			metadata.DELETE("/rules/:id", requireAdmin, metadataHandler.DeleteValidationRule)
		}

		// Protected Layout routes
		layouts := api.Group("/layouts")
		layouts.Use(requireAuth)
		{
			layouts.GET("/:entityCode", formHandler.GetLayout)
			layouts.POST("/save", requireAdmin, formHandler.SaveLayout)
		}

		// Protected Record routes
		records := api.Group("/records")
		records.Use(requireAuth)
		{
			records.GET("/:entityCode", recordHandler.ListRecords)
			records.POST("/:entityCode", recordHandler.CreateRecord)
			records.GET("/:entityCode/:id", recordHandler.GetRecord)
			records.PUT("/:entityCode/:id", recordHandler.UpdateRecord)
			records.DELETE("/:entityCode/:id", recordHandler.DeleteRecord)
		}
	}

	log.Printf("🚀 FormaCRM backend listening on http://localhost:%s", port)
	log.Printf("📊 Metadata API: http://localhost:%s/api/metadata", port)
	log.Printf("📐 Layout API:   http://localhost:%s/api/layouts", port)
	log.Printf("💾 Record API:   http://localhost:%s/api/records", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}
	log.Println("Server exiting")
}
