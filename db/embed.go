// Package db provides embedded database schema and seed files.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the starter menu in JSON form, used by cmd/seed-db.
//
//go:embed seed/products.json
var SeedProducts []byte
