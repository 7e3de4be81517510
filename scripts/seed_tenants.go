package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type seedTenant struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Secret string `yaml:"secret"`
}

type SeedConfig struct {
	Tenants    []seedTenant       `yaml:"tenants"`
	Promotions []models.Promotion `yaml:"promotions"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		dbPath   = flag.String("db", "./data/bookings.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var cfg SeedConfig
	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(cfg.Tenants) == 0 && len(cfg.Promotions) == 0 {
		return fmt.Errorf("nothing to seed")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tenants := 0
	for _, t := range cfg.Tenants {
		if t.ID <= 0 || strings.TrimSpace(t.Secret) == "" {
			logger.Warn().Int64("tenant_id", t.ID).Msg("skipping tenant without id or secret")
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(t.Secret), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash secret for tenant %d: %w", t.ID, err)
		}
		if err = db.UpsertTenant(ctx, &models.Tenant{ID: t.ID, Name: t.Name, SecretHash: string(hash)}); err != nil {
			return fmt.Errorf("tenant %d: %w", t.ID, err)
		}
		tenants++
	}

	promotions := 0
	for i := range cfg.Promotions {
		p := &cfg.Promotions[i]
		if p.Title == "" || p.PriceFactor <= 0 {
			continue
		}
		if err = db.UpsertPromotion(ctx, p); err != nil {
			return fmt.Errorf("promotion %s: %w", p.Title, err)
		}
		promotions++
	}

	fmt.Printf("done: tenants=%d promotions=%d\n", tenants, promotions)
	return nil
}
