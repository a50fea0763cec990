package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// AddIndexes adds query-path indexes that AutoMigrate does not cover.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Login and admin user search
		{"users", "idx_users_email_status", "email, status"},

		// Workspace scope resolution
		{"workspaces", "idx_workspaces_owner_status", "owner_id, status"},
		{"workspace_members", "idx_ws_members_user_id", "user_id"},

		// Credit history listing (user_id, created_at) is declared on the
		// model; balance lookups
		{"access_levels", "idx_access_levels_plan", "plan"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?
		`, idx.table, idx.name).Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}
