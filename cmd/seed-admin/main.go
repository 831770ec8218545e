package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/playmatatu/pinball/internal/admin"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/database"
)

func main() {
	// Initialize configuration (loads .env when present)
	cfg := config.Load()

	username := flag.String("username", envOr("ADMIN_USERNAME", "admin"), "operator username")
	token := flag.String("token", os.Getenv("ADMIN_TOKEN"), "operator token (stored bcrypt-hashed)")
	displayName := flag.String("name", envOr("ADMIN_DISPLAY_NAME", "Admin"), "display name")
	roles := flag.String("roles", envOr("ADMIN_ROLES", "super_admin"), "comma-separated roles: viewer, operator, super_admin")
	ips := flag.String("allowed-ips", os.Getenv("ADMIN_ALLOWED_IPS"), "comma-separated IP allowlist; empty allows any IP")
	flag.Parse()

	if *token == "" {
		*token = "change-me-in-production"
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN or -token in production!")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	roleList := splitList(*roles)
	ipList := splitList(*ips)

	if err := admin.CreateAdminAccount(db, *username, *displayName, *token, roleList, ipList); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✓ Admin account created/updated successfully")
	log.Printf("  Username: %s", *username)
	log.Printf("  Display Name: %s", *displayName)
	log.Printf("  Roles: %v", roleList)
	log.Printf("  Allowed IPs: %v", ipList)
	log.Println("Send X-Admin-User and X-Admin-Token headers to /api/v1/admin/*")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
