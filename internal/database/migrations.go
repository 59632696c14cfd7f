package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the listing indexes that are not declared on the models.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns string
	}{
		// Dashboard and list ordering
		{&models.Project{}, "idx_projects_owner_created", "owner_id, created_at"},
		// Campaign feed filter
		{&models.Campaign{}, "idx_campaigns_status", "status"},
		// Pull reconciliation scans
		{&models.User{}, "idx_users_is_active", "is_active"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Debug().Str("index", idx.name).Str("table", stmt.Schema.Table).Msg("created index")
	}

	return nil
}
