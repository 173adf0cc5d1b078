// Command main runs the database seeder for SnapCircle.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"snapcircle/internal/config"
	"snapcircle/internal/database"
	"snapcircle/internal/middleware"
	"snapcircle/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	photosPerUser := flag.Int("photos", defaults.PhotosPerUser, "Photos per generated user")
	friendsPerUser := flag.Int("friends", defaults.FriendsPerUser, "Friend links attempted per user")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	scenario := flag.String("scenario", "", `Apply a YAML scenario file instead of random data ("demo" for the built-in one)`)
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))

	if cfg.IsProduction() && !*dryRun {
		middleware.Logger.Error("refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.PhotosPerUser = *photosPerUser
	opts.FriendsPerUser = *friendsPerUser
	opts.DryRun = *dryRun
	opts.RandSeed = *randSeed

	s := seed.NewSeeder(db, opts)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			middleware.Logger.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
	}

	if *scenario != "" {
		sc, err := seed.LoadScenarioFile(*scenario)
		if err != nil {
			middleware.Logger.Error("scenario load failed", "error", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = sc.Apply(ctx, db, opts)
		cancel()
		switch {
		case errors.Is(err, seed.ErrScenarioApplied):
			middleware.Logger.Info("scenario already applied, nothing to do", "scenario", sc.Name)
		case err != nil:
			middleware.Logger.Error("scenario seeding failed", "error", err)
			os.Exit(1)
		}
	} else if err := s.Run(); err != nil {
		middleware.Logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	middleware.Logger.Info("seeding finished", "default_password", seed.DefaultPassword)
}
