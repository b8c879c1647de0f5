package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddIndexes adds query-critical indexes beyond what AutoMigrate creates.
// Index existence is checked via information_schema so this is safe to
// re-run on both mysql and postgres.
func AddIndexes(db *gorm.DB, log *zap.SugaredLogger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Project listing per role
		{"projects", "idx_projects_created_by_id", "created_by_id"},
		{"projects", "idx_projects_status", "status"},
		{"projects", "idx_projects_priority", "priority"},

		// Assignment lookups
		{"project_analysts", "idx_project_analysts_analyst_id", "analyst_id"},

		// Change history ordered by time
		{"change_logs", "idx_change_logs_project_changed_at", "project_id, changed_at"},

		// Catalog validation on every write
		{"catalogs", "idx_catalogs_name_value", "name, value"},
	}

	checkSQL := `SELECT COUNT(*) FROM information_schema.statistics WHERE table_name = ? AND index_name = ?`
	if db.Dialector.Name() == "postgres" {
		checkSQL = `SELECT COUNT(*) FROM pg_indexes WHERE tablename = ? AND indexname = ?`
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(checkSQL, idx.table, idx.name).Count(&count).Error

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

		log.Infow("created index", "index", idx.name, "table", idx.table)
	}

	return nil
}
