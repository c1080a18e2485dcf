package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoris/STPark-sub000/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailWorker delivers queued mail through the SMTP mailer.
type EmailWorker struct {
	mailer *infra.Mailer
}

func NewEmailWorker(mailer *infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

type emailPayload struct {
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	HTML        string   `json:"html"`
	Attachments []string `json:"attachments,omitempty"`
}

// HandleEmail is the JobEmail handler.
func (w *EmailWorker) HandleEmail(ctx context.Context, job Job) error {
	var payload emailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if len(payload.To) == 0 {
		return fmt.Errorf("email without recipients")
	}
	if err := w.mailer.Send(payload.To, payload.Subject, payload.HTML, payload.Attachments); err != nil {
		return err
	}
	log.Info().Strs("to", payload.To).Str("subject", payload.Subject).Msg("email sent")
	return nil
}
