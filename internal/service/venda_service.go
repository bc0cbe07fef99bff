package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/infra"
	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/worker"
)

// VendaService coordinates a sale: header, lines and the matching stock
// exits are written in one transaction, or not at all.
type VendaService interface {
	RegistrarVenda(ctx context.Context, cabecalho model.Venda, itens []model.ItemVenda) (int64, error)
	BuscarVenda(ctx context.Context, id int64) (*model.Venda, error)
	ListarVendas(ctx context.Context, filtro repository.VendaFilter) ([]model.Venda, int64, error)
	GerarRecibo(ctx context.Context, id int64) ([]byte, error)
}

// VendaOpcoes tunes RegistrarVenda.
type VendaOpcoes struct {
	// RevalidarEstoque repeats the stock check inside the transaction, after
	// locking the sold items' catalog rows (PostgreSQL). Off by default: two
	// concurrent sales of the last unit may then both succeed.
	RevalidarEstoque bool
}

type vendaService struct {
	db         *gorm.DB
	repo       repository.VendaRepository
	itemRepo   repository.ItemRepository
	estoque    EstoqueService
	caixa      CaixaService
	dispatcher *worker.Dispatcher
	opts       VendaOpcoes
}

// NewVendaService wires the coordinator. db == nil runs the write phase
// without a real transaction (unit tests with stub repositories);
// dispatcher == nil disables post-commit jobs.
func NewVendaService(
	db *gorm.DB,
	repo repository.VendaRepository,
	itemRepo repository.ItemRepository,
	estoque EstoqueService,
	caixa CaixaService,
	dispatcher *worker.Dispatcher,
	opts VendaOpcoes,
) VendaService {
	return &vendaService{
		db:         db,
		repo:       repo,
		itemRepo:   itemRepo,
		estoque:    estoque,
		caixa:      caixa,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

var errIDVendaInvalido = errors.New("banco retornou id de venda não positivo")

// ── RegistrarVenda ────────────────────────────────────────────────────────────
//   1. Preconditions (no I/O beyond reads): lines, quantities, prices, open session
//   2. Idempotency key: a key already used returns the original sale id
//   3. Sufficiency pass, outside the TX: requested quantity per item vs ledger balance
//   4. BEGIN TX: header → for each line (line, stock exit) → COMMIT
//   5. Best effort: metrics, receipt job, low-stock jobs
//
// Any failure in 4 rolls back everything written by this call.

func (s *vendaService) RegistrarVenda(ctx context.Context, cabecalho model.Venda, itens []model.ItemVenda) (int64, error) {
	inicio := time.Now()
	defer func() { infra.DuracaoVenda.Observe(time.Since(inicio).Seconds()) }()

	logger := log.With().
		Int64("movimento_caixa_id", cabecalho.MovimentoCaixaID).
		Int64("responsavel_id", cabecalho.ResponsavelID).
		Int64("evento_id", cabecalho.EventoID).
		Logger()

	// 1. Preconditions
	if err := validarItens(itens); err != nil {
		infra.VendasRejeitadas.WithLabelValues("precondicao").Inc()
		logger.Info().Err(err).Msg("venda rejeitada")
		return 0, err
	}

	// 2. Idempotent resubmission
	if chave := chaveDe(cabecalho); chave != "" {
		existente, err := s.repo.FindByChave(ctx, chave)
		if err == nil {
			logger.Info().Int64("venda_id", existente.ID).Str("chave", chave).Msg("venda já registrada com esta chave")
			return existente.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, s.falha(logger, ErrPersistenciaIndisponivel, err)
		}
	}

	if err := s.caixa.ValidarMovimentoAberto(ctx, cabecalho.MovimentoCaixaID); err != nil {
		if errors.Is(err, ErrSemCaixaAberto) {
			infra.VendasRejeitadas.WithLabelValues("precondicao").Inc()
			logger.Info().Msg("venda rejeitada: movimento de caixa não está aberto")
			return 0, &PrecondicaoError{Linha: -1, Err: ErrSemCaixaAberto}
		}
		return 0, s.falha(logger, ErrPersistenciaIndisponivel, err)
	}

	// 3. Sufficiency pass
	pedido, ordem, err := somarPorItem(itens)
	if err != nil {
		infra.VendasRejeitadas.WithLabelValues("precondicao").Inc()
		logger.Info().Err(err).Msg("venda rejeitada")
		return 0, err
	}
	if err := s.verificarEstoque(ctx, nil, pedido, ordem); err != nil {
		var insuf *EstoqueInsuficienteError
		if errors.As(err, &insuf) {
			s.rejeitarEstoque(logger, insuf)
			return 0, insuf
		}
		return 0, s.falha(logger, ErrPersistenciaIndisponivel, err)
	}

	// 4. Write phase
	etapa := ErrPersistenciaIndisponivel
	var vendaID int64
	txErr := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if s.opts.RevalidarEstoque {
			if err := s.itemRepo.LockTx(withCtx(ctx, tx), ordem); err != nil {
				return err
			}
			if err := s.verificarEstoque(ctx, tx, pedido, ordem); err != nil {
				return err
			}
		}

		etapa = ErrCabecalhoVenda
		venda := cabecalho
		venda.ID = 0
		venda.Itens = nil
		venda.MovimentoCaixa = nil
		if venda.DataVenda.IsZero() {
			venda.DataVenda = time.Now()
		}
		if err := s.repo.CreateTx(withCtx(ctx, tx), &venda); err != nil {
			return err
		}
		if venda.ID <= 0 {
			return errIDVendaInvalido
		}

		etapa = ErrItemVenda
		responsavel := venda.ResponsavelID
		evento := venda.EventoID
		for i := range itens {
			linha := itens[i]
			linha.ID = 0
			linha.VendaID = venda.ID
			linha.Item = nil
			if err := s.repo.CreateItemTx(withCtx(ctx, tx), &linha); err != nil {
				return fmt.Errorf("item %d: %w", i+1, err)
			}
			saida := &model.MovimentoEstoque{
				ItemID:        linha.ItemID,
				Quantidade:    linha.Quantidade,
				TipoMovimento: model.Saida,
				OrigemRecurso: model.OrigemVenda,
				UsuarioID:     &responsavel,
				EventoID:      &evento,
				DataMovimento: venda.DataVenda,
			}
			if err := s.estoque.RegistrarMovimentoTx(ctx, tx, saida); err != nil {
				return fmt.Errorf("baixa do item %d: %w", i+1, err)
			}
		}

		etapa = ErrPersistenciaIndisponivel // anything after this point is the commit
		vendaID = venda.ID
		return nil
	})
	if txErr != nil {
		var insuf *EstoqueInsuficienteError
		if errors.As(txErr, &insuf) {
			s.rejeitarEstoque(logger, insuf)
			return 0, insuf
		}
		// A concurrent resubmission with the same key may have won the race
		// on the unique index; hand back its id.
		if chave := chaveDe(cabecalho); chave != "" && errors.Is(etapa, ErrCabecalhoVenda) {
			if existente, err := s.repo.FindByChave(ctx, chave); err == nil {
				return existente.ID, nil
			}
		}
		return 0, s.falha(logger, etapa, txErr)
	}

	// 5. Post-commit, best effort
	total := decimal.Zero
	for _, l := range itens {
		total = total.Add(l.Subtotal())
	}
	infra.VendasRegistradas.Inc()
	infra.ValorVendido.Add(total.InexactFloat64())
	logger.Info().Int64("venda_id", vendaID).Int("itens", len(itens)).Str("total", total.StringFixed(2)).
		Msg("venda registrada")
	s.despachar(ctx, vendaID, cabecalho, ordem)

	return vendaID, nil
}

func validarItens(itens []model.ItemVenda) error {
	if len(itens) == 0 {
		return &PrecondicaoError{Linha: -1, Err: ErrVendaSemItens}
	}
	for i, it := range itens {
		if it.Quantidade <= 0 {
			return &PrecondicaoError{Linha: i, Err: ErrQuantidadeInvalida}
		}
		if it.Quantidade > QuantidadeMaxima {
			return &PrecondicaoError{Linha: i, Err: ErrQuantidadeExcessiva}
		}
		if it.ValorUnitario.IsNegative() {
			return &PrecondicaoError{Linha: i, Err: ErrValorUnitarioInvalido}
		}
	}
	return nil
}

// somarPorItem totals the requested quantity per item; ordem keeps the
// order of first appearance so the reported shortfall is deterministic.
// Lines must already have passed validarItens. A total that would overflow
// is rejected on the line that tips it over.
func somarPorItem(itens []model.ItemVenda) (map[int64]int64, []int64, error) {
	pedido := make(map[int64]int64, len(itens))
	var ordem []int64
	for i, it := range itens {
		atual, ok := pedido[it.ItemID]
		if !ok {
			ordem = append(ordem, it.ItemID)
		}
		q := int64(it.Quantidade)
		if q <= 0 || atual > math.MaxInt64-q {
			return nil, nil, &PrecondicaoError{Linha: i, Err: ErrQuantidadeExcessiva}
		}
		pedido[it.ItemID] = atual + q
	}
	return pedido, ordem, nil
}

// verificarEstoque returns the first shortfall as *EstoqueInsuficienteError.
// tx == nil reads outside any transaction.
func (s *vendaService) verificarEstoque(ctx context.Context, tx *gorm.DB, pedido map[int64]int64, ordem []int64) error {
	for _, itemID := range ordem {
		var (
			saldo int64
			err   error
		)
		if tx == nil {
			saldo, err = s.estoque.Saldo(ctx, itemID)
		} else {
			saldo, err = s.estoque.SaldoTx(ctx, tx, itemID)
		}
		if err != nil {
			return err
		}
		if saldo < pedido[itemID] {
			return &EstoqueInsuficienteError{ItemID: itemID, Solicitado: pedido[itemID], Disponivel: saldo}
		}
	}
	return nil
}

func (s *vendaService) rejeitarEstoque(logger zerolog.Logger, e *EstoqueInsuficienteError) {
	infra.VendasRejeitadas.WithLabelValues("estoque").Inc()
	logger.Info().Int64("item_id", e.ItemID).Int64("solicitado", e.Solicitado).Int64("disponivel", e.Disponivel).
		Msg("venda rejeitada: estoque insuficiente")
}

// falha logs the real cause and returns the opaque error callers see.
func (s *vendaService) falha(logger zerolog.Logger, etapa, causa error) error {
	motivo := "indisponivel"
	switch etapa {
	case ErrCabecalhoVenda:
		motivo = "cabecalho"
	case ErrItemVenda:
		motivo = "item"
	}
	infra.VendasRejeitadas.WithLabelValues(motivo).Inc()
	logger.Error().Err(causa).Str("etapa", etapa.Error()).Msg("venda não registrada")
	return &FalhaVendaError{Etapa: etapa, Causa: causa}
}

func (s *vendaService) despachar(ctx context.Context, vendaID int64, cabecalho model.Venda, itens []int64) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.EnqueueRecibo(ctx, worker.ReciboJobPayload{
		VendaID: vendaID,
		Email:   cabecalho.EmailRecibo,
	}); err != nil {
		log.Warn().Err(err).Int64("venda_id", vendaID).Msg("venda: falha ao enfileirar recibo")
	}
	for _, itemID := range itens {
		if err := s.dispatcher.EnqueueAlertaEstoque(ctx, worker.AlertaEstoquePayload{
			ItemID:   itemID,
			EventoID: cabecalho.EventoID,
		}); err != nil {
			log.Warn().Err(err).Int64("item_id", itemID).Msg("venda: falha ao enfileirar alerta de estoque")
			return
		}
	}
}

func chaveDe(v model.Venda) string {
	if v.ChaveIdempotencia == nil {
		return ""
	}
	return *v.ChaveIdempotencia
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *vendaService) BuscarVenda(ctx context.Context, id int64) (*model.Venda, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendaNaoEncontrada
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return v, nil
}

func (s *vendaService) ListarVendas(ctx context.Context, filtro repository.VendaFilter) ([]model.Venda, int64, error) {
	vendas, total, err := s.repo.List(ctx, filtro)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return vendas, total, nil
}

func (s *vendaService) GerarRecibo(ctx context.Context, id int64) ([]byte, error) {
	v, err := s.BuscarVenda(ctx, id)
	if err != nil {
		return nil, err
	}
	return infra.GerarReciboPDF(v)
}
