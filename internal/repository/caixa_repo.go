package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/model"
)

type CaixaRepository interface {
	CreateCaixa(ctx context.Context, c *model.Caixa) error
	FindCaixaByID(ctx context.Context, id int64) (*model.Caixa, error)
	FindCaixaByNome(ctx context.Context, nome string) (*model.Caixa, error)
	ListCaixas(ctx context.Context) ([]model.Caixa, error)

	CreateMovimento(ctx context.Context, m *model.MovimentoCaixa) error
	FindMovimentoByID(ctx context.Context, id int64) (*model.MovimentoCaixa, error)
	FindMovimentoAberto(ctx context.Context, caixaID int64) (*model.MovimentoCaixa, error)
	// FecharMovimento flips an Aberto movement to Fechado and returns the
	// number of rows changed (0 when it was already closed or unknown).
	FecharMovimento(ctx context.Context, id int64, fechadoEm time.Time) (int64, error)
}

type caixaRepo struct{ db *gorm.DB }

func NewCaixaRepository(db *gorm.DB) CaixaRepository { return &caixaRepo{db: db} }

func (r *caixaRepo) CreateCaixa(ctx context.Context, c *model.Caixa) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *caixaRepo) FindCaixaByID(ctx context.Context, id int64) (*model.Caixa, error) {
	var c model.Caixa
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *caixaRepo) FindCaixaByNome(ctx context.Context, nome string) (*model.Caixa, error) {
	var c model.Caixa
	err := r.db.WithContext(ctx).Where("nome = ?", nome).First(&c).Error
	return &c, err
}

func (r *caixaRepo) ListCaixas(ctx context.Context) ([]model.Caixa, error) {
	var cs []model.Caixa
	err := r.db.WithContext(ctx).Order("nome ASC").Find(&cs).Error
	return cs, err
}

func (r *caixaRepo) CreateMovimento(ctx context.Context, m *model.MovimentoCaixa) error {
	return r.db.WithContext(ctx).Omit("Caixa").Create(m).Error
}

func (r *caixaRepo) FindMovimentoByID(ctx context.Context, id int64) (*model.MovimentoCaixa, error) {
	var m model.MovimentoCaixa
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *caixaRepo) FindMovimentoAberto(ctx context.Context, caixaID int64) (*model.MovimentoCaixa, error) {
	var m model.MovimentoCaixa
	err := r.db.WithContext(ctx).
		Where("caixa_id = ? AND status = ?", caixaID, model.MovimentoAberto).
		Order("id DESC").
		First(&m).Error
	return &m, err
}

func (r *caixaRepo) FecharMovimento(ctx context.Context, id int64, fechadoEm time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.MovimentoCaixa{}).
		Where("id = ? AND status = ?", id, model.MovimentoAberto).
		Updates(map[string]interface{}{
			"status":     model.MovimentoFechado,
			"fechado_em": fechadoEm,
		})
	return res.RowsAffected, res.Error
}
