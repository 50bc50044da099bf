package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dialectors = map[string]func(dsn string) gorm.Dialector{
	"sqlite":   sqlite.Open,
	"postgres": postgres.Open,
}

// GetDialector maps a configured driver name to its GORM dialector.
// Supported drivers are sqlite and postgres.
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	open, ok := dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return open(dsn), nil
}
