package migrations

import (
	_ "embed"

	"github.com/goran-ethernal/StarkIndexor/internal/db"
)

//go:embed 001_event_store.sql
var mig001 string

//go:embed 002_deployments.sql
var mig002 string

func RunMigrations(dbPath string) error {
	migrations := []db.Migration{
		{
			ID:  "001_event_store.sql",
			SQL: mig001,
		},
		{
			ID:  "002_deployments.sql",
			SQL: mig002,
		},
	}

	return db.RunMigrations(dbPath, migrations)
}
