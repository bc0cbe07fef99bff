package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fernandosserra/unython/internal/model"
)

// VendaFilter narrows ListVendas. Zero values mean "no filter".
type VendaFilter struct {
	MovimentoCaixaID int64
	EventoID         int64
	Desde            *time.Time
	Ate              *time.Time
	Page             int
	Limit            int
}

type VendaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venda) error
	CreateItemTx(tx *gorm.DB, it *model.ItemVenda) error
	FindByID(ctx context.Context, id int64) (*model.Venda, error)
	FindByChave(ctx context.Context, chave string) (*model.Venda, error)
	List(ctx context.Context, filter VendaFilter) ([]model.Venda, int64, error)
}

type vendaRepo struct{ db *gorm.DB }

func NewVendaRepository(db *gorm.DB) VendaRepository { return &vendaRepo{db: db} }

// CreateTx inserts the header only; lines are written one by one with
// CreateItemTx so that each line can be paired with its stock exit.
func (r *vendaRepo) CreateTx(tx *gorm.DB, v *model.Venda) error {
	return tx.Omit(clause.Associations).Create(v).Error
}

func (r *vendaRepo) CreateItemTx(tx *gorm.DB, it *model.ItemVenda) error {
	return tx.Omit(clause.Associations).Create(it).Error
}

func (r *vendaRepo) FindByID(ctx context.Context, id int64) (*model.Venda, error) {
	var v model.Venda
	err := r.db.WithContext(ctx).
		Preload("Itens", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Itens.Item").
		First(&v, id).Error
	return &v, err
}

func (r *vendaRepo) FindByChave(ctx context.Context, chave string) (*model.Venda, error) {
	var v model.Venda
	err := r.db.WithContext(ctx).Where("chave_idempotencia = ?", chave).First(&v).Error
	return &v, err
}

func (r *vendaRepo) List(ctx context.Context, filter VendaFilter) ([]model.Venda, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Venda{})
	if filter.MovimentoCaixaID > 0 {
		q = q.Where("movimento_caixa_id = ?", filter.MovimentoCaixaID)
	}
	if filter.EventoID > 0 {
		q = q.Where("evento_id = ?", filter.EventoID)
	}
	if filter.Desde != nil {
		q = q.Where("data_venda >= ?", *filter.Desde)
	}
	if filter.Ate != nil {
		q = q.Where("data_venda < ?", *filter.Ate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var vendas []model.Venda
	err := q.Preload("Itens").Order("data_venda DESC, id DESC").Offset(offset).Limit(limit).Find(&vendas).Error
	return vendas, total, err
}
