package main

import (
	"fundchain_ledger/internal/config" // Custom import path (Config)
	"fundchain_ledger/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())
}
