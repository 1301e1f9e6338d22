package main

import (
	"log"
	"net/http"

	"checkin_logistica/internal/config"
	"checkin_logistica/internal/logger"
	"checkin_logistica/internal/middleware"
	"checkin_logistica/internal/prometheus"
	"checkin_logistica/internal/routes"
)

func main() {
	// Structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Register metrics before the router starts serving
	prometheus.InitMetrics()

	// Setup Gin router (recovery, request logging and metrics included)
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := config.ServerAddr()
	log.Printf("🚀 Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
