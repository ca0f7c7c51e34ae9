// Package db provides the embedded database schema and the bundled catalog.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Products is the bundled catalog dataset, a JSON array of products.
//
//go:embed seed/products.json
var Products []byte
