package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CaixaAtivo   = "Ativo"
	CaixaInativo = "Inativo"

	MovimentoAberto  = "Aberto"
	MovimentoFechado = "Fechado"
)

// Caixa is a physical register. Created by an administrator; the sale
// core only reads it.
type Caixa struct {
	ID        int64  `gorm:"primaryKey"`
	Nome      string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Descricao *string
	Status    string `gorm:"type:varchar(20);not null;default:'Ativo'"`
}

func (Caixa) TableName() string { return "caixas" }

// MovimentoCaixa is one open/close session of a register.
// Status: "Aberto" | "Fechado". At most one Aberto row per CaixaID; a
// closed session is never reopened.
type MovimentoCaixa struct {
	ID                int64           `gorm:"primaryKey"`
	CaixaID           int64           `gorm:"not null;index"`
	UsuarioAberturaID int64           `gorm:"not null"`
	ValorAbertura     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status            string          `gorm:"type:varchar(20);not null;default:'Aberto'"`
	EventoID          *int64
	AbertoEm          time.Time `gorm:"not null"`
	FechadoEm         *time.Time

	Caixa *Caixa `gorm:"foreignKey:CaixaID"`
}

func (MovimentoCaixa) TableName() string { return "movimentos_caixa" }
