package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bizfinance/internal/company"
	"bizfinance/pkg/authtoken"
	"bizfinance/pkg/config"
	"bizfinance/pkg/db"
)

func main() {
	seed := flag.String("seed-company", "", "create a company with this name and print its id and a dev access token")
	flag.Parse()

	cfg := config.Load()
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}

	// This uses DIRECT_URL if set (recommended for Supabase migrations).
	if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	// Sanity check: ensure the runtime connection can open (uses DATABASE_URL if set).
	// DSNs are never printed.
	ctx := context.Background()
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("migrations applied")

	if *seed == "" {
		return
	}
	c, err := company.NewRepository(pool).Create(ctx, *seed, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed company failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("company_id=%s\n", c.ID)

	if cfg.Auth.JWTSecret == "" {
		fmt.Println("AUTH_JWT_SECRET not set; use X-Company-ID in dev")
		return
	}
	tok, err := authtoken.Sign(c.ID, "dev", cfg.Auth.JWTAudience, cfg.Auth.JWTSecret, time.Now(), 24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("access_token=%s\n", tok)
}
