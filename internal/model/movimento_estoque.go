package model

import "time"

// TipoMovimento is the direction of a stock movement.
type TipoMovimento string

const (
	Entrada TipoMovimento = "Entrada"
	Saida   TipoMovimento = "Saida"
)

// Valid reports whether t is one of the two known directions.
func (t TipoMovimento) Valid() bool { return t == Entrada || t == Saida }

// Well-known provenance values for OrigemRecurso.
const (
	OrigemDoacao         = "Doacao"
	OrigemVenda          = "Venda"
	OrigemConsumoInterno = "Consumo Interno"
	OrigemAjuste         = "Ajuste de Inventario"
)

// MovimentoEstoque is an immutable ledger fact. Rows are only ever
// appended; the balance of an item is always derived from them:
// SUM(Entrada) - SUM(Saida). Corrections are new rows, never updates.
type MovimentoEstoque struct {
	ID            int64         `gorm:"primaryKey"`
	ItemID        int64         `gorm:"not null;index"`
	Quantidade    int           `gorm:"not null"` // always > 0; direction carries the sign
	TipoMovimento TipoMovimento `gorm:"type:varchar(20);not null"`
	OrigemRecurso string        `gorm:"type:varchar(100);not null"`
	UsuarioID     *int64
	EventoID      *int64 `gorm:"index"`
	DataMovimento time.Time `gorm:"not null;index"`

	Item *Item `gorm:"foreignKey:ItemID"`
}

func (MovimentoEstoque) TableName() string { return "movimentos_estoque" }
