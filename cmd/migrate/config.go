package main

import (
	"io/fs"
	"os"

	"catalogservice/db"
)

// migrationSource returns where goose reads migrations from. MIGRATIONS_DIR
// points at a directory on disk; otherwise the set embedded in the binary is
// used.
func migrationSource() (fs.FS, string) {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return nil, v
	}
	return db.Migrations, db.MigrationsDir
}

// createDir is where new migration files are written.
func createDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return "db/migrations"
}
