package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venda is the sale header. It is written once, inside the same
// transaction as its lines and their stock exits, and never modified.
type Venda struct {
	ID               int64  `gorm:"primaryKey"`
	PessoaID         *int64 // customer, optional
	ResponsavelID    int64  `gorm:"not null"`
	EventoID         int64  `gorm:"not null;index"`
	MovimentoCaixaID int64  `gorm:"not null;index"`
	DataVenda        time.Time `gorm:"not null"`
	// ChaveIdempotencia lets the front end resubmit a sale safely
	ChaveIdempotencia *string `gorm:"type:varchar(64);uniqueIndex"`
	// EmailRecibo is where the receipt is mailed after commit. Not stored.
	EmailRecibo string `gorm:"-"`

	Itens          []ItemVenda     `gorm:"foreignKey:VendaID"`
	MovimentoCaixa *MovimentoCaixa `gorm:"foreignKey:MovimentoCaixaID"`
}

func (Venda) TableName() string { return "vendas" }

// Total sums quantity × unit price over the loaded lines.
func (v *Venda) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range v.Itens {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemVenda is a sale line. ValorUnitario is the price charged at the
// moment of sale and is never recomputed from the catalog.
type ItemVenda struct {
	ID            int64           `gorm:"primaryKey"`
	VendaID       int64           `gorm:"not null;index"`
	ItemID        int64           `gorm:"not null;index"`
	Quantidade    int             `gorm:"not null"`
	ValorUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Item *Item `gorm:"foreignKey:ItemID"`
}

func (ItemVenda) TableName() string { return "itens_venda" }

func (i ItemVenda) Subtotal() decimal.Decimal {
	return i.ValorUnitario.Mul(decimal.NewFromInt(int64(i.Quantidade)))
}
