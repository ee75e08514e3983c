package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/boxable/subbox-server/cmd/api"
	"github.com/boxable/subbox-server/cmd/models"
	"github.com/boxable/subbox-server/db"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	// Check for command-line arguments
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations()
			return
		case "clear-db":
			runDatabaseClear()
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	// Start the server
	startServer()
}

func runMigrations() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database for migrations")

	// Perform migrations
	if err := performMigrations(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	if err := seedCatalogs(DB); err != nil {
		log.Fatalf("Seed error: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func performMigrations(DB *gorm.DB) error {
	// Referenced tables must exist before the tables holding their foreign
	// keys, so order matters here.
	migrations := []struct {
		model interface{}
		name  string
	}{
		{&models.Box{}, "Box"},
		{&models.Billing{}, "Billing"},
		{&models.Subscription{}, "Subscription"},
		{&models.FakepayError{}, "FakepayError"},
	}

	log.Println("Starting database migrations...")
	for _, migration := range migrations {
		log.Printf("Migrating %s table...", migration.name)
		if err := DB.AutoMigrate(migration.model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", migration.name, err)
		}
		log.Printf("%s migration successful", migration.name)
	}

	log.Println("All migrations completed successfully")
	return nil
}

// seedCatalogs inserts the box catalog and the gateway error descriptions.
// Inserts are idempotent: rows that already exist are left untouched.
func seedCatalogs(DB *gorm.DB) error {
	boxes := []models.Box{
		{BoxID: "bronze", Price: 1999},
		{BoxID: "silver", Price: 4900},
		{BoxID: "gold", Price: 9900},
	}
	if err := DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&boxes).Error; err != nil {
		return fmt.Errorf("error seeding boxes: %w", err)
	}
	log.Println("Boxes in DB")

	gatewayErrors := []models.FakepayError{
		{Code: 1000001, Description: "Invalid credit card number"},
		{Code: 1000002, Description: "Insufficient funds"},
		{Code: 1000003, Description: "CVV failure"},
		{Code: 1000004, Description: "Expired card"},
		{Code: 1000005, Description: "Invalid zip code"},
		{Code: 1000006, Description: "Invalid purchase amount"},
		{Code: 1000007, Description: "Invalid token"},
		{Code: 1000008, Description: "Invalid params: cannot specify both  token  and other credit card params like  card_number ,  cvv ,  expiration_month ,  expiration_year  or  zip."},
	}
	if err := DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&gatewayErrors).Error; err != nil {
		return fmt.Errorf("error seeding fakepay errors: %w", err)
	}
	log.Println("Fakepay errors in DB")

	return nil
}

func startServer() {
	// Initialize database connection
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database")

	// Graceful shutdown setup
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start the API server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "3000"
	}
	server := api.NewApiServer(":"+port, DB)

	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on port %s", port)

	<-quit
	log.Println("Shutting down server...")
}

func runDatabaseClear() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()

	log.Println("Preparing to clear database...")

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)

	if confirmation != "yes" {
		log.Println("Database clearing cancelled.")
		return
	}

	// Dependent tables first, so foreign keys do not block the drops.
	tables := []interface{}{
		&models.Subscription{},
		&models.Billing{},
		&models.Box{},
		&models.FakepayError{},
	}

	log.Println("Dropping tables...")
	for _, table := range tables {
		if err := DB.Migrator().DropTable(table); err != nil {
			log.Printf("Warning dropping table %T: %v", table, err)
		} else {
			log.Printf("Table %T dropped", table)
		}
	}

	log.Println("Database cleared successfully")
}
