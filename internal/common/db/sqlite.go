package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens a file-backed SQLite database through GORM using the
// cgo-free modernc driver. Used by integration tests so the same repos run
// against a throwaway database file.
//
// Transactions begin IMMEDIATE and writers wait on the busy timeout instead
// of failing with SQLITE_BUSY, so concurrent repo calls serialize the same
// way they do on MySQL.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(10000)", path)
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, &gorm.Config{
		TranslateError: true,
	})
}
