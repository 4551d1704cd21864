// Package report renders a finished game's score report as a printable PDF.
package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/jwebster45206/map-quest/pkg/navigator"
)

const (
	margin    = 40.0
	rowH      = 18.0
	titleSize = 20
	textSize  = 11
	colPrompt = 295.0
	colScore  = 80.0
	colBest   = 70.0
	colWorst  = 70.0
)

// PDF renders the report on A4 pages. The layout mirrors the game-over
// messages: heading, completion line, then the score table if points were
// in play.
func PDF(r navigator.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(r.GameName+" score report", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetTextColor(30, 30, 30)
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 28, "Game Over", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", textSize)
	pdf.MultiCell(0, rowH, tr("You have completed "+r.GameName+"."), "", "L", false)

	if r.Scored() {
		pdf.MultiCell(0, rowH, "Your total score is "+navigator.FormatPoints(r.TotalScore)+".", "", "L", false)
		pdf.Ln(8)
		scoreTable(pdf, tr, r.Rows)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func scoreTable(pdf *gofpdf.Fpdf, tr func(string) string, rows []navigator.ScoreRow) {
	header := func() {
		pdf.SetFont("Helvetica", "B", textSize)
		pdf.SetFillColor(220, 225, 235)
		pdf.CellFormat(colPrompt, rowH, "Prompt", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colScore, rowH, "Score", "1", 0, "R", true, 0, "")
		pdf.CellFormat(colBest, rowH, "Best", "1", 0, "R", true, 0, "")
		pdf.CellFormat(colWorst, rowH, "Worst", "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", textSize)
	}

	_, pageH := pdf.GetPageSize()
	header()
	for _, row := range rows {
		if pdf.GetY()+rowH > pageH-margin {
			pdf.AddPage()
			header()
		}
		label := fitText(pdf, tr(strconv.Itoa(row.Prompt)+". "+row.Title), colPrompt-6)
		pdf.CellFormat(colPrompt, rowH, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colScore, rowH, navigator.FormatPoints(row.Score), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colBest, rowH, navigator.FormatPoints(row.Best), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWorst, rowH, navigator.FormatPoints(row.Worst), "1", 1, "R", false, 0, "")
	}
}

// fitText shortens s with a trailing ellipsis until it fits width at the
// current font. s must already be translated to the single-byte cp1252
// encoding, so byte slicing never splits a character.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	n := len(s)
	for n > 0 && pdf.GetStringWidth(s[:n]+ellipsis) > width {
		n--
	}
	return s[:n] + ellipsis
}
