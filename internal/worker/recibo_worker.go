package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fernandosserra/unython/internal/infra"
	"github.com/fernandosserra/unython/internal/repository"
)

// ReciboJobPayload is the job envelope sent to QueueRecibo.
type ReciboJobPayload struct {
	VendaID int64  `json:"venda_id"`
	Email   string `json:"email,omitempty"`
}

// ReciboWorker renders the PDF receipt of a committed sale into the storage
// directory and, when the buyer left an address, queues it for e-mail.
type ReciboWorker struct {
	vendas      repository.VendaRepository
	storagePath string
	dispatcher  *Dispatcher
}

func NewReciboWorker(vendas repository.VendaRepository, storagePath string, dispatcher *Dispatcher) *ReciboWorker {
	return &ReciboWorker{vendas: vendas, storagePath: storagePath, dispatcher: dispatcher}
}

func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p ReciboJobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("recibo_worker: invalid payload: %w", err)
	}

	venda, err := w.vendas.FindByID(ctx, p.VendaID)
	if err != nil {
		return fmt.Errorf("recibo_worker: venda %d: %w", p.VendaID, err)
	}

	path, err := infra.SalvarReciboPDF(venda, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Int64("venda_id", venda.ID).Str("path", path).Msg("recibo_worker: recibo gerado")

	if p.Email == "" || w.dispatcher == nil {
		return nil
	}
	// A failed enqueue must not regenerate the PDF on retry; log and move on.
	if err := w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		Para:    p.Email,
		Assunto: fmt.Sprintf("Recibo da venda %d", venda.ID),
		Corpo:   "Segue em anexo o recibo da sua compra. Obrigado pela contribuição!",
		Anexo:   path,
	}); err != nil {
		log.Warn().Err(err).Int64("venda_id", venda.ID).Msg("recibo_worker: falha ao enfileirar e-mail")
	}
	return nil
}
