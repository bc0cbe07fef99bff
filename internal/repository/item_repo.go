package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fernandosserra/unython/internal/model"
)

// ItemRepository reads the catalog. Catalog maintenance lives outside this
// service, so there is no write path here.
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Item, error)
	// LockTx takes row locks on the given catalog rows for the rest of tx.
	// It is a no-op on dialects without SELECT … FOR UPDATE (SQLite, where
	// the single writer already serializes transactions) and for a nil tx.
	LockTx(tx *gorm.DB, ids []int64) error
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	var it model.Item
	err := r.db.WithContext(ctx).First(&it, id).Error
	return &it, err
}

func (r *itemRepo) LockTx(tx *gorm.DB, ids []int64) error {
	if tx == nil || len(ids) == 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	var locked []model.Item
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&locked).Error
}
