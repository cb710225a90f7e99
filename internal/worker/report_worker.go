package worker

// report_worker.go
// Processes close-of-register report jobs from QueueCloseReport.
// Renders the session PDF and emails the summary to the manager. When the
// counted drawer differs from the expected balance beyond the alert
// threshold, the subject line flags the discrepancy.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/infra"
	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/repository"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CloseReportPayload is the job envelope sent to QueueCloseReport.
type CloseReportPayload struct {
	SessionID string `json:"session_id"`
}

// ReportWorker processes close-report jobs from QueueCloseReport.
type ReportWorker struct {
	repo           repository.RegisterRepository
	mailer         *infra.Mailer
	rdb            *redis.Client
	pdfStoragePath string
	managerEmail   string
	alertThreshold decimal.Decimal
}

// NewReportWorker wires all dependencies for the close-report worker.
func NewReportWorker(
	repo repository.RegisterRepository,
	mailer *infra.Mailer,
	rdb *redis.Client,
	pdfStoragePath string,
	managerEmail string,
	alertThreshold decimal.Decimal,
) *ReportWorker {
	return &ReportWorker{
		repo:           repo,
		mailer:         mailer,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
		managerEmail:   managerEmail,
		alertThreshold: alertThreshold,
	}
}

// Process handles a single close-report job:
//  1. Parse CloseReportPayload from the job envelope
//  2. Fetch the session (with movements) from DB
//  3. Generate the session PDF
//  4. Email the summary to the manager with exponential backoff (max 3 retries)
//  5. Move the job to the DLQ if sending fails after all retries
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload CloseReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		log.Error().Str("session_id", payload.SessionID).Msg("report_worker: invalid session_id")
		return
	}

	session, err := w.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", payload.SessionID).Msg("report_worker: session not found")
		return
	}

	stats := service.ComputeStatistics(session, session.Movements)

	pdfPath, pdfErr := infra.GenerateSessionReportPDF(session, session.Movements, stats, w.pdfStoragePath)
	if pdfErr != nil {
		// Send the summary without attachment rather than dropping the report
		log.Warn().Err(pdfErr).Str("session_id", payload.SessionID).Msg("report_worker: PDF generation failed")
		pdfPath = ""
	}

	if w.managerEmail == "" {
		log.Warn().Msg("report_worker: no manager email configured — skipping send")
		return
	}

	subject, body := w.composeMail(session, stats)

	sendErr := withRetry(ctx, 3, func(attempt int) error {
		if err := w.mailer.SendSessionReport(w.managerEmail, subject, body, pdfPath); err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("session_id", payload.SessionID).
				Msg("report_worker: send attempt failed, retrying")
			return err
		}
		return nil
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("session_id", payload.SessionID).Msg("report_worker: send failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueCloseReport, "close_report", raw, sendErr.Error(), 3)
		return
	}

	log.Info().
		Str("session_id", payload.SessionID).
		Str("to", w.managerEmail).
		Msg("report_worker: close report sent")
}

func (w *ReportWorker) composeMail(session *model.RegisterSession, stats service.StatisticsView) (subject, body string) {
	day := session.OpenedAt.Format("02/01/2006")
	subject = fmt.Sprintf("Register closed — %s", day)

	discrepancy := decimal.Zero
	if session.Discrepancy != nil {
		discrepancy = *session.Discrepancy
	}
	if discrepancy.Abs().GreaterThanOrEqual(w.alertThreshold) {
		subject = fmt.Sprintf("[DISCREPANCY $%s] Register closed — %s", discrepancy.StringFixed(2), day)
	}

	counted := "n/a"
	if session.ClosingAmount != nil {
		counted = "$" + session.ClosingAmount.StringFixed(2)
	}
	closedBy := ""
	if session.ClosedBy != nil {
		closedBy = *session.ClosedBy
	}

	body = fmt.Sprintf(
		"Register session %s\n\nOpened: %s by %s\nOpening amount: $%s\n\nEntries: $%s\nExits: $%s\nExpected balance: $%s\nCounted: %s\nDiscrepancy: $%s\n\nClosed by: %s\nMovements: %d\n",
		session.ID,
		session.OpenedAt.Format("02/01/2006 15:04"), session.OpenedBy,
		session.OpeningAmount.StringFixed(2),
		stats.TotalEntries.StringFixed(2),
		stats.TotalExits.StringFixed(2),
		stats.CurrentBalance.StringFixed(2),
		counted,
		discrepancy.StringFixed(2),
		closedBy,
		stats.MovementCount,
	)
	return subject, body
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
