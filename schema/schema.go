// Package schema embeds the database schema so tools and test setups can
// provision it.
package schema

import (
	_ "embed"
)

// DDL is the idempotent schema definition of the library database.
//
//go:embed library.sql
var DDL string
