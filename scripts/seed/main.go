package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/jeffreyshi17/coffree/internal/config"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Command-line flags
var (
	phonesCount    = flag.Int("phones", 5, "Number of phone subscribers to create")
	campaignsCount = flag.Int("campaigns", 3, "Number of campaigns to create")
	clearData      = flag.Bool("clear", false, "Clear existing seed data before inserting")
	showHelp       = flag.Bool("help", false, "Show usage information")
)

func main() {
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	// Load .env file (ignore error if not present)
	_ = godotenv.Load()

	printInfo("=== Coffree Database Seeder ===\n")

	cfg, err := config.Load()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}

	printInfo("Connecting to database...")
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		printError(fmt.Sprintf("Failed to open database connection: %v", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		printError(fmt.Sprintf("Failed to ping database: %v", err))
		os.Exit(1)
	}
	printSuccess("✓ Connected to database\n")

	if *clearData {
		if err := clearSeedData(db); err != nil {
			printError(fmt.Sprintf("Failed to clear seed data: %v", err))
			os.Exit(1)
		}
	}

	phonesCreated, err := seedPhones(db, *phonesCount)
	if err != nil {
		printError(fmt.Sprintf("Failed to seed phone numbers: %v", err))
		os.Exit(1)
	}

	campaignsCreated, err := seedCampaigns(db, *campaignsCount)
	if err != nil {
		printError(fmt.Sprintf("Failed to seed campaigns: %v", err))
		os.Exit(1)
	}

	printInfo("\n=== Seeding Summary ===")
	printSuccess(fmt.Sprintf("✓ Phone numbers created: %d", phonesCreated))
	printSuccess(fmt.Sprintf("✓ Campaigns created: %d", campaignsCreated))
	printInfo("\nSeeding completed successfully!")
}

// clearSeedData removes existing seed data
func clearSeedData(db *sql.DB) error {
	printWarning("Clearing existing seed data...")

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Seeded campaigns use the SEEDxxx campaign_id pattern
	_, err = tx.Exec("DELETE FROM message_logs WHERE campaign_id LIKE 'SEED%'")
	if err != nil {
		return fmt.Errorf("failed to delete message logs: %w", err)
	}

	_, err = tx.Exec("DELETE FROM campaigns WHERE campaign_id LIKE 'SEED%'")
	if err != nil {
		return fmt.Errorf("failed to delete campaigns: %w", err)
	}

	// Seeded phones use the 55501000xx block
	_, err = tx.Exec("DELETE FROM phone_numbers WHERE phone LIKE '55501000%'")
	if err != nil {
		return fmt.Errorf("failed to delete phone numbers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	printSuccess("✓ Seed data cleared\n")
	return nil
}

// seedPhones inserts test subscribers
func seedPhones(db *sql.DB, count int) (int, error) {
	printInfo(fmt.Sprintf("Seeding %d phone numbers...", count))

	platforms := []string{"android", "apple"}
	created := 0

	for i := 0; i < count; i++ {
		phone := fmt.Sprintf("55501000%02d", i)
		platform := platforms[i%len(platforms)]

		var pushToken *string
		if i%2 == 0 {
			token := fmt.Sprintf("ExponentPushToken[seed-%02d]", i)
			pushToken = &token
		}

		_, err := db.Exec(`
			INSERT INTO phone_numbers (phone, platform, push_token)
			VALUES ($1, $2, $3)
			ON CONFLICT (phone) DO NOTHING
		`, phone, platform, pushToken)
		if err != nil {
			return created, fmt.Errorf("failed to insert phone %s: %w", phone, err)
		}
		created++
	}

	printSuccess(fmt.Sprintf("  ✓ %d phone numbers seeded", created))
	return created, nil
}

// seedCampaigns inserts test campaigns
func seedCampaigns(db *sql.DB, count int) (int, error) {
	printInfo(fmt.Sprintf("Seeding %d campaigns...", count))

	channels := []string{"reddit", "email", "twitter"}
	created := 0

	for i := 0; i < count; i++ {
		campaignID := fmt.Sprintf("SEED%03d", i)
		channel := channels[i%len(channels)]
		link := fmt.Sprintf("https://coffree.capitalone.com/sms/?cid=%s&mc=%s", campaignID, channel)
		source := "manual"
		if i%2 == 1 {
			source = "auto"
		}

		_, err := db.Exec(`
			INSERT INTO campaigns (campaign_id, marketing_channel, full_link, source, is_valid, is_expired)
			VALUES ($1, $2, $3, $4, TRUE, FALSE)
			ON CONFLICT (campaign_id) DO NOTHING
		`, campaignID, channel, link, source)
		if err != nil {
			return created, fmt.Errorf("failed to insert campaign %s: %w", campaignID, err)
		}
		created++
	}

	printSuccess(fmt.Sprintf("  ✓ %d campaigns seeded", created))
	return created, nil
}

// Helper functions for colored output

func printSuccess(msg string) {
	fmt.Printf("%s%s%s\n", colorGreen, msg, colorReset)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorRed, msg, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s%s%s\n", colorCyan, msg, colorReset)
}

func printWarning(msg string) {
	fmt.Printf("%s%s%s\n", colorYellow, msg, colorReset)
}

func printUsage() {
	printInfo("=== Coffree Database Seeder ===\n")
	fmt.Println("Usage: go run ./scripts/seed [flags]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./scripts/seed")
	fmt.Println("  go run ./scripts/seed -phones 10 -campaigns 5")
	fmt.Println("  go run ./scripts/seed -clear")
}
