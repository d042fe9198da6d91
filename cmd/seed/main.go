package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"aquamonitor/database"
	"aquamonitor/internal/config"
	"aquamonitor/internal/observability"
	"aquamonitor/internal/utils"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := observability.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logger configuration: %v\n", err)
		os.Exit(1)
	}

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	floors := seedCmd.Int("floors", utils.DefaultFloors, "Number of floors to create tanks on")
	rooms := seedCmd.Int("rooms", utils.DefaultRoomsPerFloor, "Tanks (rooms) per floor")
	days := seedCmd.Int("days", utils.DefaultHistoryDays, "Days of consumption history")
	seed := seedCmd.Uint64("seed", 42, "Random seed")

	switch os.Args[1] {
	case "seed":
		if err := seedCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("Error parsing flags: %v", err)
		}
		seeder := newSeeder(cfg, func(opts *utils.SeedOptions) {
			opts.Floors, opts.RoomsPerFloor, opts.HistoryDays, opts.Seed = *floors, *rooms, *days, *seed
		})
		report, err := seeder.Seed(context.Background())
		if err != nil {
			log.Fatalf("Error seeding sample data: %v", err)
		}
		if report.Skipped {
			log.Info("Database already contains tanks; nothing to do")
		}

	case "clear":
		if err := newSeeder(cfg, nil).Clear(context.Background()); err != nil {
			log.Fatalf("Error clearing data: %v", err)
		}

	case "help":
		printHelp()

	default:
		fmt.Printf("Unknown subcommand: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func newSeeder(cfg *config.Config, customize func(*utils.SeedOptions)) *utils.Seeder {
	db, err := database.ConnectDatabase(cfg.DB)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := database.MigrateDatabase(db); err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}

	opts := utils.DefaultSeedOptions()
	opts.CriticalLevel, opts.LowLevel = cfg.AlertCriticalLevel, cfg.AlertLowLevel
	if customize != nil {
		customize(&opts)
	}
	return utils.NewSeeder(db, clockwork.NewRealClock(), opts)
}

func printHelp() {
	fmt.Println("Sample data tool for AquaMonitor")
	fmt.Println("\nUsage:")
	fmt.Println("  seed COMMAND [OPTIONS]")
	fmt.Println("\nCommands:")
	fmt.Println("  seed         Create sample tanks, trucks, alerts and consumption history")
	fmt.Println("               Skipped when the database already has tanks.")
	fmt.Println("               Options:")
	fmt.Println("                 --floors=N      Floors with tanks (default: 3)")
	fmt.Println("                 --rooms=N       Tanks per floor (default: 4)")
	fmt.Println("                 --days=N        Days of consumption history (default: 30)")
	fmt.Println("                 --seed=N        Random seed (default: 42)")
	fmt.Println("")
	fmt.Println("  clear        Delete all tanks, trucks, alerts and consumption records")
	fmt.Println("")
	fmt.Println("  help         Show this help message")
	fmt.Println("")
	fmt.Println("Environment variables:")
	fmt.Println("  DB_DRIVER    postgres or sqlite (default: postgres)")
	fmt.Println("  DB_PATH      sqlite file (default: data/aquamonitor.db)")
	fmt.Println("  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE for postgres")
}
