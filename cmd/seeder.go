package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/donation-management/internal/auth"
	"github.com/frahmantamala/donation-management/internal/core/status"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed reference data and a bootstrap admin",
	Long:  `Seed the status catalog, role catalog, a default organization and an admin user.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			// Reference tables only; donation history is never cleared.
			if err := db.Exec("DELETE FROM user_roles").Error; err != nil {
				log.Fatalf("failed to clear user_roles: %v", err)
			}
			fmt.Println("Cleared role grants")
		}

		// Status catalog is the closed set the application enumerates;
		// seeding keeps the table and the code in lockstep.
		for _, entry := range status.Entries {
			var exists int
			row := db.Raw("SELECT 1 FROM status_catalog WHERE id = ?", entry.ID).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO status_catalog (id, code, description) VALUES (?, ?, ?)", entry.ID, entry.Code, entry.Description).Error; err != nil {
				log.Fatalf("failed to insert status %s: %v", entry.Code, err)
			}
			fmt.Printf("Seeded status: %s\n", entry.Code)
		}

		roles := []struct {
			ID   int16
			Name string
		}{
			{1, auth.RoleAdmin},
			{2, auth.RoleOrganization},
			{3, auth.RoleAuditor},
			{4, auth.RoleDonor},
		}

		for _, r := range roles {
			var exists int
			row := db.Raw("SELECT 1 FROM roles WHERE name = ?", r.Name).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO roles (id, name) VALUES (?, ?)", r.ID, r.Name).Error; err != nil {
				log.Fatalf("failed to insert role %s: %v", r.Name, err)
			}
			fmt.Printf("Seeded role: %s\n", r.Name)
		}

		orgName := "Fundación Donaciones Guatemala"
		var orgID string
		if err := db.Raw("SELECT id FROM organizations WHERE name = ?", orgName).Row().Scan(&orgID); err != nil {
			if err := db.Exec("INSERT INTO organizations (id, name, is_active, created_at, updated_at) VALUES (gen_random_uuid(), ?, true, now(), now())", orgName).Error; err != nil {
				log.Fatalf("failed to insert default organization: %v", err)
			}
			if err := db.Raw("SELECT id FROM organizations WHERE name = ?", orgName).Row().Scan(&orgID); err != nil {
				log.Fatalf("failed to lookup default organization: %v", err)
			}
			fmt.Println("Seeded default organization:", orgName)
		}

		adminEmail := "admin@donaciones.org.gt"
		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		var adminID string
		if err := db.Raw("SELECT id FROM users WHERE email = ?", adminEmail).Row().Scan(&adminID); err != nil {
			if err := db.Exec("INSERT INTO users (id, email, password_hash, full_name, email_verified, is_active, organization_id, created_at, updated_at) VALUES (gen_random_uuid(), ?, ?, 'Administrator', true, true, ?, now(), now())", adminEmail, string(hash), orgID).Error; err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			if err := db.Raw("SELECT id FROM users WHERE email = ?", adminEmail).Row().Scan(&adminID); err != nil {
				log.Fatalf("failed to lookup admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		var adminRoleID int16
		if err := db.Raw("SELECT id FROM roles WHERE name = ?", auth.RoleAdmin).Row().Scan(&adminRoleID); err != nil {
			log.Fatalf("admin role not found: %v", err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM user_roles WHERE user_id = ? AND role_id = ?", adminID, adminRoleID).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", adminID, adminRoleID).Error; err != nil {
				log.Fatalf("failed to grant admin role: %v", err)
			}
			fmt.Println("Granted ADMIN role to:", adminEmail)
		}

		fmt.Println("Seeding complete")
	},
}
