package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/repository"
)

// CaixaService is the cash session registry: registers and their
// open/close sessions (movimentos de caixa).
type CaixaService interface {
	AbrirMovimento(ctx context.Context, caixaID, usuarioID int64, valorAbertura decimal.Decimal, eventoID *int64) (int64, error)
	// MovimentoAtivo returns nil, nil when the register has no open session.
	MovimentoAtivo(ctx context.Context, caixaID int64) (*model.MovimentoCaixa, error)
	FecharMovimento(ctx context.Context, movimentoID int64) (bool, error)
	// ValidarMovimentoAberto is called by VendaService before any write.
	ValidarMovimentoAberto(ctx context.Context, movimentoID int64) error

	RegistrarCaixa(ctx context.Context, nome string, descricao *string) (int64, error)
	ListarCaixas(ctx context.Context) ([]model.Caixa, error)
}

type caixaService struct {
	repo repository.CaixaRepository
	now  func() time.Time
}

func NewCaixaService(repo repository.CaixaRepository) CaixaService {
	return &caixaService{repo: repo, now: time.Now}
}

// ── AbrirMovimento ────────────────────────────────────────────────────────────
// Idempotent: a register that already has an open session gets that
// session's id back instead of a second one.

func (s *caixaService) AbrirMovimento(ctx context.Context, caixaID, usuarioID int64, valorAbertura decimal.Decimal, eventoID *int64) (int64, error) {
	if valorAbertura.IsNegative() {
		return 0, ErrValorAberturaInvalido
	}

	caixa, err := s.repo.FindCaixaByID(ctx, caixaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCaixaNaoEncontrado
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	if caixa.Status == model.CaixaInativo {
		return 0, ErrCaixaInativo
	}

	ativo, err := s.MovimentoAtivo(ctx, caixaID)
	if err != nil {
		return 0, err
	}
	if ativo != nil {
		log.Info().Int64("caixa_id", caixaID).Int64("movimento_id", ativo.ID).
			Msg("caixa: já existe movimento aberto, reutilizando")
		return ativo.ID, nil
	}

	mov := &model.MovimentoCaixa{
		CaixaID:           caixaID,
		UsuarioAberturaID: usuarioID,
		ValorAbertura:     valorAbertura,
		Status:            model.MovimentoAberto,
		EventoID:          eventoID,
		AbertoEm:          s.now(),
	}
	if err := s.repo.CreateMovimento(ctx, mov); err != nil {
		// Lost a race against another open on the same register: the
		// partial unique index rejected us, so the winner's session is there.
		if ativo, findErr := s.MovimentoAtivo(ctx, caixaID); findErr == nil && ativo != nil {
			return ativo.ID, nil
		}
		log.Error().Err(err).Int64("caixa_id", caixaID).Msg("caixa: falha ao abrir movimento")
		return 0, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	log.Info().Int64("caixa_id", caixaID).Int64("movimento_id", mov.ID).
		Str("valor_abertura", valorAbertura.StringFixed(2)).Msg("caixa: movimento aberto")
	return mov.ID, nil
}

func (s *caixaService) MovimentoAtivo(ctx context.Context, caixaID int64) (*model.MovimentoCaixa, error) {
	mov, err := s.repo.FindMovimentoAberto(ctx, caixaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return mov, nil
}

// ── FecharMovimento ───────────────────────────────────────────────────────────
// Conditional update: only an Aberto row transitions, so a second close (or
// an unknown id) changes nothing and reports false.

func (s *caixaService) FecharMovimento(ctx context.Context, movimentoID int64) (bool, error) {
	n, err := s.repo.FecharMovimento(ctx, movimentoID, s.now())
	if err != nil {
		log.Error().Err(err).Int64("movimento_id", movimentoID).Msg("caixa: falha ao fechar movimento")
		return false, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	if n != 1 {
		log.Info().Int64("movimento_id", movimentoID).Msg("caixa: movimento inexistente ou já fechado")
		return false, nil
	}
	return true, nil
}

func (s *caixaService) ValidarMovimentoAberto(ctx context.Context, movimentoID int64) error {
	mov, err := s.repo.FindMovimentoByID(ctx, movimentoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSemCaixaAberto
		}
		return fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	if mov.Status != model.MovimentoAberto {
		return ErrSemCaixaAberto
	}
	return nil
}

// ── RegistrarCaixa ────────────────────────────────────────────────────────────
// Upsert by name: registering an existing name returns the existing id.

func (s *caixaService) RegistrarCaixa(ctx context.Context, nome string, descricao *string) (int64, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return 0, ErrNomeCaixaObrigatorio
	}

	existente, err := s.repo.FindCaixaByNome(ctx, nome)
	if err == nil {
		return existente.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}

	c := &model.Caixa{Nome: nome, Descricao: descricao, Status: model.CaixaAtivo}
	if err := s.repo.CreateCaixa(ctx, c); err != nil {
		if existente, findErr := s.repo.FindCaixaByNome(ctx, nome); findErr == nil {
			return existente.ID, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return c.ID, nil
}

func (s *caixaService) ListarCaixas(ctx context.Context) ([]model.Caixa, error) {
	cs, err := s.repo.ListCaixas(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistencia, err)
	}
	return cs, nil
}
