package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sahilchouksey/course-week-planner/config"
	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/utils"
	"github.com/sahilchouksey/course-week-planner/utils/auth"
)

func main() {
	var ownerUserID uint
	flag.UintVar(&ownerUserID, "user", 1, "user id that owns the demo class")
	flag.Parse()

	// Load environment variables
	if err := config.LoadENV(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load env: %v\n", err)
		os.Exit(1)
	}
	getEnv, err := config.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := utils.NewLogger(getEnv.LOG_MODE, getEnv.LOG_LEVEL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize database connection using GORM
	store, err := database.StartGORM(log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Course Week Planner - Database Seeding")
	fmt.Println(separator)

	class, err := database.RunSeeds(store.GetDB(), ownerUserID, log)
	if err != nil {
		log.Fatal("seeding failed", "error", err)
	}

	fmt.Printf("Demo class: id=%d owner=%d week=%d\n", class.ID, class.OwnerUserID, class.CurrentWeek)
	if getEnv.JWT_SECRET == "" {
		fmt.Println("JWT_SECRET is not set, skipping token generation.")
		return
	}

	token, _, err := auth.NewJWTManager(auth.JWTConfig{
		Secret: getEnv.JWT_SECRET,
		Expiry: 24 * time.Hour,
		Issuer: getEnv.JWT_ISSUER,
	}).GenerateAccessToken(ownerUserID)
	if err != nil {
		log.Fatal("failed to issue token", "error", err)
	}
	fmt.Println()
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:%d/api/v1/classes/%d/weeks/schedule\n", token, getEnv.PORT, class.ID)
}
