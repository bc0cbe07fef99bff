package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovimentoEstoqueRequest is the body of POST /v1/estoque/movimentos.
// Saida without origem is recorded as internal consumption; Entrada without
// origem as a donation.
type MovimentoEstoqueRequest struct {
	ItemID        int64  `json:"item_id"        validate:"required,gt=0"`
	Quantidade    int    `json:"quantidade"     validate:"required,min=1,max=2147483647"`
	TipoMovimento string `json:"tipo_movimento" validate:"required,oneof=Entrada Saida"`
	Origem        string `json:"origem"         validate:"omitempty,max=100"`
	EventoID      *int64 `json:"evento_id"      validate:"omitempty,gt=0"`
}

// AjusteEstoqueRequest is a physical recount.
type AjusteEstoqueRequest struct {
	ItemID   int64  `json:"item_id"  validate:"required,gt=0"`
	Contado  *int64 `json:"contado"  validate:"required,min=0"`
	EventoID *int64 `json:"evento_id" validate:"omitempty,gt=0"`
}

type MovimentoCriadoResponse struct {
	ID int64 `json:"id"`
}

type SaldoResponse struct {
	ItemID            int64           `json:"item_id"`
	Nome              string          `json:"nome"`
	SaldoAtual        int64           `json:"saldo_atual"`
	CustoTotalEstoque decimal.Decimal `json:"custo_total_estoque"`
	ValorVenda        decimal.Decimal `json:"valor_venda"`
}

type MovimentoEstoqueResponse struct {
	ID            int64     `json:"id"`
	ItemID        int64     `json:"item_id"`
	Quantidade    int       `json:"quantidade"`
	TipoMovimento string    `json:"tipo_movimento"`
	OrigemRecurso string    `json:"origem_recurso"`
	UsuarioID     *int64    `json:"usuario_id,omitempty"`
	EventoID      *int64    `json:"evento_id,omitempty"`
	DataMovimento time.Time `json:"data_movimento"`
}
