package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/rahadianw/dealer-crm/internal/dealer"
	"github.com/rahadianw/dealer-crm/internal/session"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample accounts and dealers for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"login_logs", "attendance_logs", "interaction_history", "dealer_summaries", "dealers", "users"} {
				if err := gormDB.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

		accounts := []session.UserAccount{
			{Username: "admin", Password: string(hash), Role: "admin", SalesPersonName: "Head Office", Access: "all"},
			{Username: "ravi", Password: string(hash), Role: "sales", SalesPersonName: "Ravi Kumar", Access: "all"},
			{Username: "priya", Password: string(hash), Role: "sales", SalesPersonName: "Priya Sharma", Access: "Dashboard,Tracker,Dealer Form"},
		}

		for _, acct := range accounts {
			var exists int64
			gormDB.Model(&session.UserAccount{}).Where("user_name = ?", acct.Username).Count(&exists)
			if exists > 0 {
				fmt.Printf("user %s already exists; skipping\n", acct.Username)
				continue
			}
			if err := gormDB.Create(&acct).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", acct.Username, err)
			}
			fmt.Printf("Seeded user: %s\n", acct.Username)
		}

		dealers := []dealer.Dealer{
			{DealerCode: "DLR-EAST-001", DealerName: "Shree Traders", Area: "East Zone", EntityType: "Dealer/Distributor", SalesPersonName: "Ravi Kumar"},
			{DealerCode: "DLR-WEST-002", DealerName: "Patel Hardware", Area: "West Zone", EntityType: "Dealer/Distributor", SalesPersonName: "Priya Sharma"},
			{DealerCode: "SITE-009", DealerName: "Lakeside Towers", Area: "North Zone", EntityType: "Site/Engineer", SalesPersonName: "Ravi Kumar"},
		}

		for _, d := range dealers {
			var exists int64
			gormDB.Model(&dealer.Dealer{}).Where("dealer_code = ?", d.DealerCode).Count(&exists)
			if exists > 0 {
				fmt.Printf("dealer %s already exists; skipping\n", d.DealerCode)
				continue
			}
			if err := gormDB.Create(&d).Error; err != nil {
				log.Fatalf("failed to insert dealer %s: %v", d.DealerCode, err)
			}
			fmt.Printf("Seeded dealer: %s\n", d.DealerCode)
		}
	},
}
