package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/model"
)

// saldoSQL derives an item's balance from the ledger. There is no stored
// balance column anywhere; every read recomputes it.
const saldoSQL = `
SELECT COALESCE(SUM(CASE WHEN tipo_movimento = 'Entrada' THEN quantidade ELSE -quantidade END), 0)
FROM movimentos_estoque
WHERE item_id = ?`

type EstoqueRepository interface {
	Create(ctx context.Context, m *model.MovimentoEstoque) error
	CreateTx(tx *gorm.DB, m *model.MovimentoEstoque) error
	Saldo(ctx context.Context, itemID int64) (int64, error)
	SaldoTx(tx *gorm.DB, itemID int64) (int64, error)
	ListByItem(ctx context.Context, itemID int64) ([]model.MovimentoEstoque, error)
}

type estoqueRepo struct{ db *gorm.DB }

func NewEstoqueRepository(db *gorm.DB) EstoqueRepository {
	return &estoqueRepo{db: db}
}

func (r *estoqueRepo) Create(ctx context.Context, m *model.MovimentoEstoque) error {
	return r.CreateTx(r.db.WithContext(ctx), m)
}

func (r *estoqueRepo) CreateTx(tx *gorm.DB, m *model.MovimentoEstoque) error {
	return tx.Omit("Item").Create(m).Error
}

func (r *estoqueRepo) Saldo(ctx context.Context, itemID int64) (int64, error) {
	return r.SaldoTx(r.db.WithContext(ctx), itemID)
}

func (r *estoqueRepo) SaldoTx(tx *gorm.DB, itemID int64) (int64, error) {
	var saldo int64
	err := tx.Raw(saldoSQL, itemID).Scan(&saldo).Error
	return saldo, err
}

func (r *estoqueRepo) ListByItem(ctx context.Context, itemID int64) ([]model.MovimentoEstoque, error) {
	var movs []model.MovimentoEstoque
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("data_movimento ASC, id ASC").
		Find(&movs).Error
	return movs, err
}
