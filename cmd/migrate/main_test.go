package main

import (
	"strings"
	"testing"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("unexpected error loading embedded migrations: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create_users" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "create_watchlists" {
		t.Fatalf("unexpected second migration: %+v", migrations[1])
	}
	if migrations[0].UpSQL == "" || migrations[0].DownSQL == "" {
		t.Fatal("expected non-empty up/down sql for first migration")
	}
	if !strings.Contains(migrations[1].UpSQL, "TEXT[]") {
		t.Fatal("watchlists migration should store symbols as a text array")
	}
}
