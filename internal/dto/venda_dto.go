package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVendaRequest struct {
	ItemID        int64           `json:"item_id"        validate:"required,gt=0"`
	Quantidade    int             `json:"quantidade"     validate:"required,min=1,max=2147483647"`
	ValorUnitario decimal.Decimal `json:"valor_unitario" validate:"min=0"`
}

// RegistrarVendaRequest is the body of POST /v1/vendas. The responsible
// user comes from the token, never from the body.
type RegistrarVendaRequest struct {
	MovimentoCaixaID int64              `json:"movimento_caixa_id" validate:"required,gt=0"`
	EventoID         int64              `json:"evento_id"          validate:"required,gt=0"`
	PessoaID         *int64             `json:"pessoa_id"          validate:"omitempty,gt=0"`
	Itens            []ItemVendaRequest `json:"itens"              validate:"required,min=1,dive"`
	// ChaveIdempotencia lets the front end retry a submission safely.
	ChaveIdempotencia *string `json:"chave_idempotencia" validate:"omitempty,max=64"`
	// EmailRecibo: optional — when present the receipt worker mails the PDF.
	EmailRecibo *string `json:"email_recibo" validate:"omitempty,email"`
}

// VendaFilter is bound from the query string of GET /v1/vendas.
type VendaFilter struct {
	MovimentoCaixaID int64  `form:"movimento_caixa_id"`
	EventoID         int64  `form:"evento_id"`
	Data             string `form:"data"` // YYYY-MM-DD, one calendar day (UTC)
	Page             int    `form:"page,default=1"   validate:"min=1"`
	Limit            int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RegistrarVendaResponse struct {
	ID int64 `json:"id"`
}

type ItemVendaResponse struct {
	ItemID        int64           `json:"item_id"`
	Nome          string          `json:"nome,omitempty"`
	Quantidade    int             `json:"quantidade"`
	ValorUnitario decimal.Decimal `json:"valor_unitario"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type VendaResponse struct {
	ID               int64               `json:"id"`
	PessoaID         *int64              `json:"pessoa_id,omitempty"`
	ResponsavelID    int64               `json:"responsavel_id"`
	EventoID         int64               `json:"evento_id"`
	MovimentoCaixaID int64               `json:"movimento_caixa_id"`
	DataVenda        time.Time           `json:"data_venda"`
	Total            decimal.Decimal     `json:"total"`
	Itens            []ItemVendaResponse `json:"itens"`
}

type VendaListResponse struct {
	Data  []VendaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
