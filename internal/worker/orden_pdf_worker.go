package worker

// orden_pdf_worker.go
// Processes purchase-order document jobs from QueueOrdenPDF: renders the
// order PDF and, if the supplier has a contact email, enqueues an email job
// with the document attached.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"abasto/internal/infra"
	"abasto/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// OrdenPDFJobPayload is the job envelope sent to QueueOrdenPDF.
type OrdenPDFJobPayload struct {
	OrdenID string `json:"orden_id"`
}

// OrdenPDFWorker renders purchase-order PDFs and chains the supplier email.
type OrdenPDFWorker struct {
	ordenRepo     repository.OrdenCompraRepository
	proveedorRepo repository.ProveedorRepository
	dispatcher    *Dispatcher
	rdb           *redis.Client
	storagePath   string
	empresa       string
}

func NewOrdenPDFWorker(
	ordenRepo repository.OrdenCompraRepository,
	proveedorRepo repository.ProveedorRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	storagePath string,
	empresa string,
) *OrdenPDFWorker {
	return &OrdenPDFWorker{
		ordenRepo:     ordenRepo,
		proveedorRepo: proveedorRepo,
		dispatcher:    dispatcher,
		rdb:           rdb,
		storagePath:   storagePath,
		empresa:       empresa,
	}
}

// Process handles a single orden_pdf job:
//  1. Parse OrdenPDFJobPayload from the job envelope
//  2. Fetch the order (with items) and its supplier
//  3. Render the PDF with retry
//  4. Enqueue the email job when the supplier has a contact address
func (w *OrdenPDFWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload OrdenPDFJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("orden_pdf_worker: invalid payload")
		return
	}

	ordenID, err := uuid.Parse(payload.OrdenID)
	if err != nil {
		log.Error().Str("orden_id", payload.OrdenID).Msg("orden_pdf_worker: invalid orden_id")
		return
	}

	orden, err := w.ordenRepo.FindByID(ctx, ordenID)
	if err != nil {
		log.Error().Err(err).Str("orden_id", payload.OrdenID).Msg("orden_pdf_worker: orden not found")
		SendToDLQ(ctx, w.rdb, QueueOrdenPDF, "orden_pdf", raw, "orden not found", 1)
		return
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateOrdenPDF(orden, w.empresa, w.storagePath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).
				Str("numero", orden.Numero).Msg("orden_pdf_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if genErr != nil {
		log.Error().Err(genErr).Str("numero", orden.Numero).Msg("orden_pdf_worker: PDF failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueOrdenPDF, "orden_pdf", raw, genErr.Error(), 3)
		return
	}
	log.Info().Str("pdf", pdfPath).Str("numero", orden.Numero).Msg("orden_pdf_worker: PDF generated")

	proveedor, err := w.proveedorRepo.FindByID(ctx, orden.ProveedorID)
	if err != nil {
		log.Warn().Err(err).Str("numero", orden.Numero).Msg("orden_pdf_worker: proveedor not found, skipping email")
		return
	}
	if proveedor.Email == nil || *proveedor.Email == "" {
		log.Info().Str("numero", orden.Numero).Msg("orden_pdf_worker: proveedor sin email, skipping")
		return
	}

	emailJob := EmailJobPayload{
		ToEmail: *proveedor.Email,
		Subject: fmt.Sprintf("Orden de Compra %s — %s", orden.Numero, w.empresa),
		Body: fmt.Sprintf("Adjunto encontrará la orden de compra %s por un total de %s USD.",
			orden.Numero, orden.TotalUSD.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", *proveedor.Email).Msg("orden_pdf_worker: failed to enqueue email")
		return
	}
	log.Info().Str("email", *proveedor.Email).Str("numero", orden.Numero).Msg("orden_pdf_worker: email job enqueued")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
