package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/khoahotran/devconnector/pkg/auth"
)

// Seeds a user account and prints a bearer token for it, for local testing
// of the authenticated profile routes.
func main() {
	fmt.Println("adding owner into database...")

	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	dsn := os.Getenv("DB_DSN")
	ownerEmail := os.Getenv("OWNER_EMAIL")
	ownerName := os.Getenv("OWNER_NAME")
	ownerAvatar := os.Getenv("OWNER_AVATAR")

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO users (id, name, email, avatar)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = $2, avatar = $4
		RETURNING id
	`
	var ownerID uuid.UUID
	err = pool.QueryRow(context.Background(), query, uuid.New(), ownerName, ownerEmail, ownerAvatar).Scan(&ownerID)
	if err != nil {
		log.Fatalf("cannot add user: %v", err)
	}

	token, err := auth.NewJWTService(os.Getenv("JWT_SECRET"), 24*time.Hour).GenerateToken(ownerID)
	if err != nil {
		log.Fatalf("cannot issue token: %v", err)
	}

	fmt.Printf("added or updated owner '%s' (%s) successfully!\n", ownerEmail, ownerID)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
