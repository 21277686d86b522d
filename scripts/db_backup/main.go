package main

import (
	"context"
	"fmt"
	"os"

	"github.com/garnizeh/pawfect/internal/config"
	"github.com/garnizeh/pawfect/internal/db"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != db.DriverSQLite {
		fmt.Fprintln(os.Stderr, "Backup error: only the sqlite driver is supported; use pg_dump for postgres")
		os.Exit(1)
	}
	src := db.SQLitePath(cfg.Database.DSN)
	if src == "" {
		fmt.Fprintln(os.Stderr, "Backup error: in-memory databases cannot be backed up")
		os.Exit(1)
	}
	dst := src + ".bak"

	conn, err := db.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	// VACUUM INTO refuses to overwrite an existing file
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	if _, err := conn.Exec(ctx, "VACUUM INTO ?", dst); err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database backup completed: %s\n", dst)
}
