package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with one user per role and a few sample bookings for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"audit_logs", "transactions", "bookings", "users"} {
				if err := gormDB.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password123"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Email string
			Name  string
			Role  auth.Role
		}{
			{"admin@wanderly.example", "Priya Nair", auth.RoleAdmin},
			{"manager@wanderly.example", "Rohit Shetty", auth.RoleManager},
			{"guide@wanderly.example", "Dev Kapoor", auth.RoleGuide},
			{"support@wanderly.example", "Meera Iyer", auth.RoleSupport},
		}

		for _, u := range seedUsers {
			var exists int
			if err := gormDB.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Println("user already exists:", u.Email)
				continue
			}
			if err := gormDB.Exec(
				"INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				u.Email, u.Name, string(hash), string(u.Role),
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email, "role:", u.Role)
		}

		seedBookings := []struct {
			Name       string
			Email      string
			PackageRef string
			Amount     int64
		}{
			{"Asha Verma", "asha.verma@example.com", "GOA-5D", 125000},
			{"Karan Mehta", "karan.mehta@example.com", "KERALA-7D", 210000},
			{"Lina Thomas", "lina.thomas@example.com", "LADAKH-10D", 345000},
		}

		for _, b := range seedBookings {
			var exists int
			if err := gormDB.Raw("SELECT 1 FROM bookings WHERE customer_email = ?", b.Email).Row().Scan(&exists); err == nil {
				fmt.Println("booking already exists for:", b.Email)
				continue
			}
			if err := gormDB.Exec(
				"INSERT INTO bookings (customer_name, customer_email, package_ref, amount, currency, status, payment_status, created_at, updated_at) VALUES (?, ?, ?, ?, 'INR', 'pending', 'pending', now(), now())",
				b.Name, b.Email, b.PackageRef, b.Amount,
			).Error; err != nil {
				log.Fatalf("failed to insert booking for %s: %v", b.Email, err)
			}
			fmt.Println("Seeded booking:", b.PackageRef, "for", b.Name)
		}

		fmt.Println("Seeding complete. All users share the password:", password)
	},
}
