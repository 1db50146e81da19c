// Package repository implements PostgreSQL persistence on pgx. All
// repositories share one pgxpool with River; the conditional update in
// StepRepository.Claim is the engine's serialization point.
package repository

import (
	_ "embed"
)

// Schema is the full DDL for the service. Auto-migrate executes it in
// development and the schema-per-test helper executes it per test
// schema; production applies the same file through migrations.
//
//go:embed schema.sql
var Schema string
