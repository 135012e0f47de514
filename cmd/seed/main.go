// Command main runs the demo-data seeder for Bugtrail.
package main

import (
	"flag"
	"log"

	"bugtrail/internal/config"
	"bugtrail/internal/database"
	"bugtrail/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numProjects := flag.Int("projects", 5, "Number of projects to create")
	numBugs := flag.Int("bugs", 100, "Number of bugs to report")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Bugtrail Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d projects, %d bugs, clean=%v\n",
		*numUsers, *numProjects, *numBugs, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		Users:    *numUsers,
		Projects: *numProjects,
		Bugs:     *numBugs,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if err := s.Run(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Done. Database populated with demo data.")
}
