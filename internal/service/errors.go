package service

import (
	"errors"
	"fmt"
	"math"
)

// QuantidadeMaxima is the largest quantity a single movement or sale line may
// carry; the quantidade columns are 32-bit INTEGER.
const QuantidadeMaxima = math.MaxInt32

// ── Sentinels ─────────────────────────────────────────────────────────────────
// Handlers and the CLI branch on these with errors.Is; the messages are safe
// to show to an operator.

var (
	// Stock ledger
	ErrQuantidadeInvalida    = errors.New("quantidade deve ser maior que zero")
	ErrQuantidadeExcessiva   = errors.New("quantidade acima do limite permitido")
	ErrTipoMovimentoInvalido = errors.New("tipo de movimento deve ser Entrada ou Saida")
	ErrItemNaoEncontrado     = errors.New("item não encontrado")
	ErrPersistencia          = errors.New("falha ao gravar no banco de dados")

	// Cash session registry
	ErrValorAberturaInvalido = errors.New("valor de abertura não pode ser negativo")
	ErrCaixaNaoEncontrado    = errors.New("caixa não encontrado")
	ErrCaixaInativo          = errors.New("caixa inativo")
	ErrNomeCaixaObrigatorio  = errors.New("nome do caixa é obrigatório")

	// Sale coordinator: preconditions
	ErrVendaSemItens         = errors.New("a venda precisa de ao menos um item")
	ErrValorUnitarioInvalido = errors.New("valor unitário não pode ser negativo")
	ErrSemCaixaAberto        = errors.New("movimento de caixa não está aberto")

	// Sale coordinator: outcomes
	ErrEstoqueInsuficiente      = errors.New("estoque insuficiente")
	ErrVendaNaoRegistrada       = errors.New("venda não registrada")
	ErrCabecalhoVenda           = errors.New("falha ao gravar cabeçalho da venda")
	ErrItemVenda                = errors.New("falha ao gravar item da venda ou baixa de estoque")
	ErrPersistenciaIndisponivel = errors.New("banco de dados indisponível")
	ErrVendaNaoEncontrada       = errors.New("venda não encontrada")
)

// PrecondicaoError reports a sale rejected before any write. Linha is the
// zero-based index of the offending line, or -1 when the header is at fault.
type PrecondicaoError struct {
	Linha int
	Err   error
}

func (e *PrecondicaoError) Error() string {
	if e.Linha < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("item %d: %s", e.Linha+1, e.Err.Error())
}

func (e *PrecondicaoError) Unwrap() error { return e.Err }

// EstoqueInsuficienteError is the first shortfall found by the sufficiency
// pass. It is an expected business outcome, not a failure.
type EstoqueInsuficienteError struct {
	ItemID     int64
	Solicitado int64
	Disponivel int64
}

func (e *EstoqueInsuficienteError) Error() string {
	return fmt.Sprintf("estoque insuficiente para o item %d: solicitado %d, disponível %d",
		e.ItemID, e.Solicitado, e.Disponivel)
}

func (e *EstoqueInsuficienteError) Is(target error) bool { return target == ErrEstoqueInsuficiente }

// FalhaVendaError is what callers see when a sale could not be recorded for
// a non-stock reason. Its message is deliberately opaque; Etapa tells which
// step failed (ErrCabecalhoVenda, ErrItemVenda, ErrPersistenciaIndisponivel)
// and the underlying cause stays reachable for logs via Unwrap.
type FalhaVendaError struct {
	Etapa error
	Causa error
}

func (e *FalhaVendaError) Error() string { return ErrVendaNaoRegistrada.Error() }

func (e *FalhaVendaError) Is(target error) bool {
	return target == ErrVendaNaoRegistrada || target == e.Etapa
}

func (e *FalhaVendaError) Unwrap() error { return e.Causa }
