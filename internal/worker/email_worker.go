package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	Para    string `json:"para"`
	Assunto string `json:"assunto"`
	Corpo   string `json:"corpo"`
	Anexo   string `json:"anexo,omitempty"` // path of a PDF on the worker's disk
}

// Remetente sends one e-mail; *infra.Mailer implements it.
type Remetente interface {
	EnviarRecibo(para, assunto, corpo, anexo string) error
}

// EmailWorker delivers receipts by e-mail.
type EmailWorker struct {
	mailer Remetente
}

func NewEmailWorker(mailer Remetente) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p EmailJobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if p.Para == "" {
		log.Warn().Msg("email_worker: empty recipient, skipping")
		return nil
	}
	if err := w.mailer.EnviarRecibo(p.Para, p.Assunto, p.Corpo, p.Anexo); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", p.Para, err)
	}
	log.Info().Str("para", p.Para).Msg("email_worker: recibo enviado")
	return nil
}
