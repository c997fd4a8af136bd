// Package db carries the SQL schema for the rating_events table.
package db

import "embed"

// Migrations holds the numbered up/down scripts under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
