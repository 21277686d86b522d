package db

import "embed"

// Migrations holds one directory of ordered .sql files per dialect:
// migrations/sqlite and migrations/postgres.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var Migrations embed.FS
