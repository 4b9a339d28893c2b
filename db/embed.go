package db

import "embed"

// MigrationsFS holds the session store schema, applied by internal/db.RunMigrate.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
