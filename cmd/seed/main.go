// Command seed populates the database with demo content.
package main

import (
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numPosts := flag.Int("posts", 40, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Printf("Seeding: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	seeder := seed.NewSeeder(db)
	if *shouldClean {
		if err := seeder.ClearAll(); err != nil {
			log.Fatalf("Failed to clear database: %v", err)
		}
	}

	if err := seeder.Run(*numUsers, *numPosts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
