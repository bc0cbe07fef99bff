package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AlertasEstoqueKey is a Redis hash item_id → balance of every item at or
// below the alert threshold. Items that recover are removed.
const AlertasEstoqueKey = "estoque:alertas"

// AlertaEstoquePayload is the job envelope sent to QueueEstoque.
type AlertaEstoquePayload struct {
	ItemID   int64 `json:"item_id"`
	EventoID int64 `json:"evento_id,omitempty"`
}

// SaldoReader is the read side of the stock ledger.
type SaldoReader interface {
	Saldo(ctx context.Context, itemID int64) (int64, error)
}

// AlertaEstoqueWorker re-reads an item's balance after a sale and flags it
// when it drops to the configured minimum.
type AlertaEstoqueWorker struct {
	estoque SaldoReader
	rdb     *redis.Client
	minimo  int64
}

func NewAlertaEstoqueWorker(estoque SaldoReader, rdb *redis.Client, minimo int64) *AlertaEstoqueWorker {
	return &AlertaEstoqueWorker{estoque: estoque, rdb: rdb, minimo: minimo}
}

func (w *AlertaEstoqueWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p AlertaEstoquePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("alerta_estoque: invalid payload: %w", err)
	}

	saldo, err := w.estoque.Saldo(ctx, p.ItemID)
	if err != nil {
		return fmt.Errorf("alerta_estoque: saldo item %d: %w", p.ItemID, err)
	}

	field := strconv.FormatInt(p.ItemID, 10)
	if saldo > w.minimo {
		return w.rdb.HDel(ctx, AlertasEstoqueKey, field).Err()
	}

	log.Warn().Int64("item_id", p.ItemID).Int64("saldo", saldo).Int64("minimo", w.minimo).
		Int64("evento_id", p.EventoID).Msg("estoque baixo")
	return w.rdb.HSet(ctx, AlertasEstoqueKey, field, saldo).Err()
}
