package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/repository"
)

// NovoMovimento is the input of RegistrarMovimento. Data defaults to now.
type NovoMovimento struct {
	ItemID     int64
	Quantidade int
	Tipo       model.TipoMovimento
	Origem     string
	UsuarioID  *int64
	EventoID   *int64
	Data       time.Time
}

// PosicaoEstoque is the stock position of one catalog item.
type PosicaoEstoque struct {
	ItemID     int64
	Nome       string
	Saldo      int64
	CustoTotal decimal.Decimal // Saldo × ValorCompra
	ValorVenda decimal.Decimal
}

// EstoqueService is the stock ledger. It is the only component that writes
// movimentos_estoque or computes balances.
type EstoqueService interface {
	RegistrarMovimento(ctx context.Context, req NovoMovimento) (int64, error)
	// RegistrarMovimentoTx appends inside a transaction owned by the caller.
	RegistrarMovimentoTx(ctx context.Context, tx *gorm.DB, m *model.MovimentoEstoque) error
	Saldo(ctx context.Context, itemID int64) (int64, error)
	SaldoTx(ctx context.Context, tx *gorm.DB, itemID int64) (int64, error)
	MovimentosPorItem(ctx context.Context, itemID int64) ([]model.MovimentoEstoque, error)

	Entrada(ctx context.Context, itemID int64, quantidade int, origem string, usuarioID, eventoID *int64) (int64, error)
	Saida(ctx context.Context, itemID int64, quantidade int, usuarioID, eventoID *int64) (int64, error)
	Ajustar(ctx context.Context, itemID, contado int64, usuarioID, eventoID *int64) (int64, error)
	Posicao(ctx context.Context, itemID int64) (*PosicaoEstoque, error)
}

type estoqueService struct {
	db       *gorm.DB
	repo     repository.EstoqueRepository
	itemRepo repository.ItemRepository
}

// NewEstoqueService wires the ledger. db may be nil in unit tests; Ajustar
// then runs without a transaction.
func NewEstoqueService(db *gorm.DB, repo repository.EstoqueRepository, itemRepo repository.ItemRepository) EstoqueService {
	return &estoqueService{db: db, repo: repo, itemRepo: itemRepo}
}

func validarMovimento(m *model.MovimentoEstoque) error {
	if m.Quantidade <= 0 {
		return ErrQuantidadeInvalida
	}
	if m.Quantidade > QuantidadeMaxima {
		return ErrQuantidadeExcessiva
	}
	if !m.TipoMovimento.Valid() {
		return ErrTipoMovimentoInvalido
	}
	if m.DataMovimento.IsZero() {
		m.DataMovimento = time.Now()
	}
	return nil
}

// ── RegistrarMovimento ────────────────────────────────────────────────────────

func (s *estoqueService) RegistrarMovimento(ctx context.Context, req NovoMovimento) (int64, error) {
	m := &model.MovimentoEstoque{
		ItemID:        req.ItemID,
		Quantidade:    req.Quantidade,
		TipoMovimento: req.Tipo,
		OrigemRecurso: req.Origem,
		UsuarioID:     req.UsuarioID,
		EventoID:      req.EventoID,
		DataMovimento: req.Data,
	}
	if err := validarMovimento(m); err != nil {
		return 0, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		log.Error().Err(err).Int64("item_id", m.ItemID).Str("tipo", string(m.TipoMovimento)).
			Msg("estoque: falha ao registrar movimento")
		return 0, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return m.ID, nil
}

func (s *estoqueService) RegistrarMovimentoTx(ctx context.Context, tx *gorm.DB, m *model.MovimentoEstoque) error {
	if err := validarMovimento(m); err != nil {
		return err
	}
	if err := s.repo.CreateTx(withCtx(ctx, tx), m); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return nil
}

// ── Saldo ─────────────────────────────────────────────────────────────────────

func (s *estoqueService) Saldo(ctx context.Context, itemID int64) (int64, error) {
	return s.repo.Saldo(ctx, itemID)
}

func (s *estoqueService) SaldoTx(ctx context.Context, tx *gorm.DB, itemID int64) (int64, error) {
	return s.repo.SaldoTx(withCtx(ctx, tx), itemID)
}

func (s *estoqueService) MovimentosPorItem(ctx context.Context, itemID int64) ([]model.MovimentoEstoque, error) {
	return s.repo.ListByItem(ctx, itemID)
}

// ── Entrada / Saida ───────────────────────────────────────────────────────────

func (s *estoqueService) Entrada(ctx context.Context, itemID int64, quantidade int, origem string, usuarioID, eventoID *int64) (int64, error) {
	if origem == "" {
		origem = model.OrigemDoacao
	}
	return s.RegistrarMovimento(ctx, NovoMovimento{
		ItemID:     itemID,
		Quantidade: quantidade,
		Tipo:       model.Entrada,
		Origem:     origem,
		UsuarioID:  usuarioID,
		EventoID:   eventoID,
	})
}

func (s *estoqueService) Saida(ctx context.Context, itemID int64, quantidade int, usuarioID, eventoID *int64) (int64, error) {
	return s.RegistrarMovimento(ctx, NovoMovimento{
		ItemID:     itemID,
		Quantidade: quantidade,
		Tipo:       model.Saida,
		Origem:     model.OrigemConsumoInterno,
		UsuarioID:  usuarioID,
		EventoID:   eventoID,
	})
}

// ── Ajustar ───────────────────────────────────────────────────────────────────
// Physical recount: posts (contado − saldo) as a single corrective movement.
// The read and the append share one transaction.

func (s *estoqueService) Ajustar(ctx context.Context, itemID, contado int64, usuarioID, eventoID *int64) (int64, error) {
	if contado < 0 {
		return 0, ErrQuantidadeInvalida
	}

	var id int64
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		saldo, err := s.repo.SaldoTx(withCtx(ctx, tx), itemID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistencia, err)
		}
		diff := contado - saldo
		if diff == 0 {
			return nil
		}
		m := &model.MovimentoEstoque{
			ItemID:        itemID,
			Quantidade:    int(diff),
			TipoMovimento: model.Entrada,
			OrigemRecurso: model.OrigemAjuste,
			UsuarioID:     usuarioID,
			EventoID:      eventoID,
		}
		if diff < 0 {
			m.Quantidade = int(-diff)
			m.TipoMovimento = model.Saida
		}
		if err := s.RegistrarMovimentoTx(ctx, tx, m); err != nil {
			return err
		}
		id = m.ID
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int64("item_id", itemID).Int64("contado", contado).Msg("estoque: falha no ajuste")
		return 0, err
	}
	return id, nil
}

// ── Posicao ───────────────────────────────────────────────────────────────────

func (s *estoqueService) Posicao(ctx context.Context, itemID int64) (*PosicaoEstoque, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNaoEncontrado
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	saldo, err := s.repo.Saldo(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return &PosicaoEstoque{
		ItemID:     item.ID,
		Nome:       item.Nome,
		Saldo:      saldo,
		CustoTotal: item.ValorCompra.Mul(decimal.NewFromInt(saldo)),
		ValorVenda: item.ValorVenda,
	}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// withCtx binds ctx to tx, tolerating the nil tx of unit test mode.
func withCtx(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return nil
	}
	return tx.WithContext(ctx)
}
