package infra

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fernandosserra/unython/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewDatabase opens a GORM connection for the given DSN.
//
//	postgres://…            PostgreSQL via pgx (production)
//	file:… / sqlite://…     SQLite via go-sqlite3 (CLI, tests)
//
// The schema is not touched here; call RunMigrations once at startup.
func NewDatabase(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		return db, nil

	case strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, "sqlite://"):
		db, err := gorm.Open(sqlite.Open(sqliteDSN(dsn)), cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer; a shared in-memory database also
		// disappears when its last connection closes.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		return db, nil
	}

	return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", dsn)
}

// sqliteDSN strips the sqlite:// prefix and turns on foreign key
// enforcement, which go-sqlite3 leaves off unless the DSN asks for it.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// RunMigrations brings the schema up to date. PostgreSQL is managed
// exclusively by the versioned SQL files in migrations/ (applied with
// golang-migrate); SQLite gets AutoMigrate of the same models plus the
// partial index that keeps a register from having two open sessions.
func RunMigrations(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		return migratePostgres(db)
	}
	return migrateSQLite(db)
}

func migratePostgres(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	// m.Close() would also close sqlDB, which GORM still owns.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func migrateSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Item{},
		&model.Caixa{},
		&model.MovimentoCaixa{},
		&model.MovimentoEstoque{},
		&model.Venda{},
		&model.ItemVenda{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	patches := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_movimentos_caixa_aberto
		     ON movimentos_caixa (caixa_id) WHERE status = 'Aberto'`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
