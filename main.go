package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/auditstack/gst-return-scrutiny/catalog"
	"github.com/auditstack/gst-return-scrutiny/config"
	"github.com/auditstack/gst-return-scrutiny/handler"
	"github.com/auditstack/gst-return-scrutiny/service"
	"github.com/auditstack/gst-return-scrutiny/store"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Load the SOP rule catalog once; it is shared immutably afterwards
	rules, err := catalog.Load(cfg.RuleCatalogPath)
	if err != nil {
		log.Fatalf("Failed to load rule catalog: %v", err)
	}
	log.Printf("Loaded %d scrutiny rules", len(rules))

	// Open the findings store
	findingsStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open findings store: %v", err)
	}
	defer findingsStore.Close()

	// Initialize PDF processor
	pdfProcessor := service.NewPDFProcessor()

	// Initialize service layer
	scrutinyService := service.NewScrutinyService(pdfProcessor, service.NewRuleEngine(rules), findingsStore)

	// Initialize handler layer
	scrutinyHandler := handler.NewScrutinyHandler(scrutinyService)

	// Setup Gin router
	router := gin.Default()

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "GST Return Scrutiny",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		scrutiny := api.Group("/scrutiny")
		{
			scrutiny.POST("/analyze", scrutinyHandler.Analyze)
			scrutiny.GET("/proceedings/:id/findings", scrutinyHandler.Findings)
			scrutiny.POST("/proceedings/:id/finalize", scrutinyHandler.Finalize)
		}
	}

	// Start server
	log.Printf("Starting GST Return Scrutiny Service on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
