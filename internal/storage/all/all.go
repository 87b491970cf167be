// Package all links every storage backend and database driver into the
// binary. Import it for side effects.
package all

import (
	_ "github.com/microsoft/go-mssqldb"

	_ "csvimport/internal/storage/mssql"
	_ "csvimport/internal/storage/postgres"
	_ "csvimport/internal/storage/sqlite"
)
