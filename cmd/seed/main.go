package main

import (
	"log"

	"clinicdesk/internal/database"
	"clinicdesk/internal/domain"
	"clinicdesk/internal/modules/auth"

	"github.com/joho/godotenv"
)

// Seeds one account per role for local development. Not for production.
func main() {
	_ = godotenv.Load()

	db, err := database.Connect("clinicdesk.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM refresh_tokens")
	db.Exec("DELETE FROM users")

	staffID := int64(1)
	doctorID := int64(2)
	customerID := int64(1)

	accounts := []struct {
		user     domain.User
		password string
	}{
		{domain.User{Username: "admin", Email: "admin@clinicdesk.local", Name: "Administrator", Role: domain.RoleAdmin}, "admin123!"},
		{domain.User{Username: "meredith", Email: "meredith@clinicdesk.local", Name: "Meredith Vale", Role: domain.RoleManager}, "manager123!"},
		{domain.User{Username: "drharris", Email: "harris@clinicdesk.local", Name: "Dr. Harris", Role: domain.RoleDoctor, StaffID: &doctorID}, "doctor123!"},
		{domain.User{Username: "samir", Email: "samir@clinicdesk.local", Name: "Samir Oduya", Role: domain.RoleStaff, StaffID: &staffID}, "staff123!"},
		{domain.User{Username: "alice", Email: "alice@example.com", Name: "Alice Carter", Role: domain.RoleCustomer, CustomerID: &customerID}, "customer123!"},
	}

	for _, a := range accounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			log.Fatal("hash failed:", err)
		}
		a.user.PasswordHash = hash
		if err := db.Create(&a.user).Error; err != nil {
			log.Fatalf("seeding %s failed: %v", a.user.Username, err)
		}
		log.Printf("created %-8s %s / %s", a.user.Role, a.user.Username, a.password)
	}

	log.Println("Seed completed")
}
