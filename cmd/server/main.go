package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/townloop/backend/internal/realtime"
	"github.com/townloop/backend/internal/router"
	"github.com/townloop/backend/pkg/config"
	"github.com/townloop/backend/pkg/firebase"
	"github.com/townloop/backend/pkg/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase; the API still works with local JWT auth when
	// credentials are absent, firebase-login just returns 503.
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Firebase not initialized: %v", err)
		firebaseApp = &firebase.App{}
	}

	// Realtime hub for direct message delivery
	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Create Echo instance
	e := echo.New()
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, db.Redis, firebaseApp.AuthClient, hub)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
