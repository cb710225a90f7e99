package infra

// pdf.go — register session report generation using go-pdf/fpdf.
// Renders an A4 summary for a closed (or in-progress) session:
//   - Header with session id and open/close operators
//   - Opening amount, totals, expected vs counted, discrepancy
//   - Movement table (time, kind, description, amount)
//
// The output file is saved to storagePath/register_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/go-pdf/fpdf"
)

// GenerateSessionReportPDF renders the human-readable session export.
// Returns the absolute path to the generated file.
func GenerateSessionReportPDF(session *model.RegisterSession, movements []model.CashMovement, stats service.StatisticsView, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("register_%s.pdf", session.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Meu Burguer", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Cash Register Report", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Session %s", session.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Opened %s by %s", session.OpenedAt.Format("02/01/2006 15:04"), session.OpenedBy), "", 1, "L", false, 0, "")
	if session.ClosedAt != nil && session.ClosedBy != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Closed %s by %s", session.ClosedAt.Format("02/01/2006 15:04"), *session.ClosedBy), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Totals ────────────────────────────────────────────────────────────────
	labelW := contentW * 0.6
	valueW := contentW * 0.4

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}

	row("Opening amount:", "$"+session.OpeningAmount.StringFixed(2), false)
	row("Total entries:", "$"+stats.TotalEntries.StringFixed(2), false)
	row("Total exits:", "-$"+stats.TotalExits.StringFixed(2), false)
	row("Expected balance:", "$"+stats.CurrentBalance.StringFixed(2), true)
	if session.ClosingAmount != nil {
		row("Counted at close:", "$"+session.ClosingAmount.StringFixed(2), false)
	}
	if session.Discrepancy != nil {
		row("Discrepancy:", "$"+session.Discrepancy.StringFixed(2), true)
	}
	if session.Notes != nil && *session.Notes != "" {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, "Notes: "+*session.Notes, "", "L", false)
	}

	pdf.Ln(3)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Movement table ────────────────────────────────────────────────────────
	col1 := contentW * 0.15 // time
	col2 := contentW * 0.12 // kind
	col3 := contentW * 0.53 // description
	col4 := contentW * 0.20 // amount

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Time", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Kind", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, m := range movements {
		desc := ""
		if m.Description != nil {
			desc = *m.Description
		}
		if r := []rune(desc); len(r) > 52 {
			desc = string(r[:51]) + "…"
		}
		amount := "$" + m.Amount.StringFixed(2)
		if m.Kind == model.MovementExit {
			amount = "-" + amount
		}
		pdf.CellFormat(col1, 5, m.CreatedAt.Format("15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, m.Kind, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, desc, "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 5, amount, "", 1, "R", false, 0, "")
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 4, "Generated "+time.Now().Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
