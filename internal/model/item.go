package model

import "github.com/shopspring/decimal"

// Item is a catalog entry. The catalog is maintained elsewhere; the sale
// core only needs the id to exist and reads prices for reporting.
type Item struct {
	ID          int64           `gorm:"primaryKey"`
	Nome        string          `gorm:"type:varchar(255);uniqueIndex;not null"`
	ValorCompra decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ValorVenda  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoriaID *int64
	Status      string `gorm:"type:varchar(50);not null;default:'Ativo'"`
}

// TableName overrides GORM's default pluralization (items → itens).
func (Item) TableName() string { return "itens" }
