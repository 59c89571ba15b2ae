package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"shopbe/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The signup endpoint always assigns the "user" role; this tool is the
// out-of-band path for creating or promoting an admin account.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_admin <email> <password>")
		fmt.Println("       (an existing account with that email is promoted instead)")
		os.Exit(2)
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[1]))
	password := os.Args[2]

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		if existing.Role == models.RoleAdmin {
			fmt.Printf("user %s is already an admin (id=%d)\n", email, existing.ID)
			os.Exit(0)
		}
		if err := db.Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
			log.Fatalf("failed to promote user: %v", err)
		}
		fmt.Printf("promoted user %s to admin (id=%d)\n", email, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Name: "Administrator", Email: email, HashedPassword: hpw, Role: models.RoleAdmin}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	fmt.Printf("created admin %s id=%d\n", email, user.ID)
}
