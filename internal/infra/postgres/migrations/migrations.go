package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the Postgres schema history, applied by `quiz-api migrate`
// and on `quiz-api start` when the postgres driver is selected.
var Migrations = migrate.NewMigrations()
