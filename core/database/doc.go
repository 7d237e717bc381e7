// Package database handles database connections and schema inspection.
//
// It wraps GORM and configures either a MySQL connection or a SQLite file
// (":memory:" in tests) from the application's configuration.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns for both dialects. The exchange store
// uses it after migration to verify the tables it relies on are in place.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "edi_exchange_records")
package database
