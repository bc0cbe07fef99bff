// Package testutil holds fixtures shared by package tests: a throwaway
// SQLite database with the production schema and a few seed helpers.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/infra"
	"github.com/fernandosserra/unython/internal/model"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedItem inserts a catalog item.
func SeedItem(t testing.TB, db *gorm.DB, nome, valorCompra, valorVenda string) *model.Item {
	t.Helper()
	it := &model.Item{
		Nome:        nome,
		ValorCompra: decimal.RequireFromString(valorCompra),
		ValorVenda:  decimal.RequireFromString(valorVenda),
		Status:      "Ativo",
	}
	require.NoError(t, db.Create(it).Error)
	return it
}

// SeedCaixa inserts an active register.
func SeedCaixa(t testing.TB, db *gorm.DB, nome string) *model.Caixa {
	t.Helper()
	c := &model.Caixa{Nome: nome, Status: model.CaixaAtivo}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}
