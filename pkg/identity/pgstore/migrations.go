package pgstore

import "embed"

// Migrations holds the schema migrations for the identity store,
// applied with pg.MigrateFS.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"
