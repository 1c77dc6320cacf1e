package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	webAdapter "sap-orders/internal/adapters/web"
	"sap-orders/internal/app"
	"sap-orders/internal/catalog"
	"sap-orders/internal/core"
	"sap-orders/internal/sap"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	pool, err := catalog.NewPool(ctx, dsn, os.Getenv("DB_SCHEMA"))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	sapClient := sap.NewClient(sap.Config{
		BaseURL:            os.Getenv("SAP_SL_URL"),
		CompanyDB:          os.Getenv("SAP_COMPANY_DB"),
		Username:           os.Getenv("SAP_USERNAME"),
		Password:           os.Getenv("SAP_PASSWORD"),
		InsecureSkipVerify: os.Getenv("SAP_SL_INSECURE") == "true",
		Timeout:            30 * time.Second,
	})

	store := catalog.NewStore(pool)
	resolver := core.NewResolver(store)

	aesKey := os.Getenv("PASSWORD_AES_KEY")
	if aesKey == "" {
		log.Fatal("PASSWORD_AES_KEY is not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	svc := app.NewAppService(store, sapClient, resolver, aesKey)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
