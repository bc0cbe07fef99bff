package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegistrarCaixaRequest struct {
	Nome      string  `json:"nome"      validate:"required,max=100"`
	Descricao *string `json:"descricao" validate:"omitempty,max=500"`
}

type AbrirMovimentoRequest struct {
	ValorAbertura decimal.Decimal `json:"valor_abertura" validate:"min=0"`
	EventoID      *int64          `json:"evento_id"      validate:"omitempty,gt=0"`
}

type CaixaResponse struct {
	ID        int64   `json:"id"`
	Nome      string  `json:"nome"`
	Descricao *string `json:"descricao,omitempty"`
	Status    string  `json:"status"`
}

type MovimentoCaixaResponse struct {
	ID                int64           `json:"id"`
	CaixaID           int64           `json:"caixa_id"`
	UsuarioAberturaID int64           `json:"usuario_abertura_id"`
	ValorAbertura     decimal.Decimal `json:"valor_abertura"`
	Status            string          `json:"status"`
	EventoID          *int64          `json:"evento_id,omitempty"`
	AbertoEm          time.Time       `json:"aberto_em"`
	FechadoEm         *time.Time      `json:"fechado_em,omitempty"`
}

type FecharMovimentoResponse struct {
	Fechado bool `json:"fechado"`
}
