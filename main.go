package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	accessSecret  []byte // loaded from env ACCESS_TOKEN_SECRET
	refreshSecret []byte // loaded from env REFRESH_TOKEN_SECRET
)

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()
	loadTokenSecrets()

	// Support a lightweight migrate command: `./shopbe migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()
	initSessions()
	initPhotoStore()

	r := gin.Default()

	setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	r.Run(":" + port)
}

func isProduction() bool {
	return os.Getenv("APP_ENV") == "production"
}

// loadTokenSecrets reads the two signing keys. The access and refresh
// domains must never share a key, otherwise a refresh token could be
// replayed as an access token.
func loadTokenSecrets() {
	access := os.Getenv("ACCESS_TOKEN_SECRET")
	refresh := os.Getenv("REFRESH_TOKEN_SECRET")
	if access == "" || refresh == "" {
		if isProduction() {
			log.Fatal("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
		}
		// development fallbacks
		if access == "" {
			access = "dev-insecure-access-secret-change"
		}
		if refresh == "" {
			refresh = "dev-insecure-refresh-secret-change"
		}
	}
	if access == refresh {
		log.Fatal("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	accessSecret = []byte(access)
	refreshSecret = []byte(refresh)
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
